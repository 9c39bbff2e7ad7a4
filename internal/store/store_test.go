package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func TestInsertTargetIgnoreDedupesOnSourceID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	added, err := InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme", SourceID: "linkedin:1"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme Again", SourceID: "linkedin:1"})
	require.NoError(t, err)
	assert.False(t, added, "same source id must not create a second target")

	// empty source ids never collide with each other
	added, err = InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Globex"})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Initech"})
	require.NoError(t, err)
	assert.True(t, added)

	targets, err := ListTargets(ctx, db.Pool, ListTargetsOpts{})
	require.NoError(t, err)
	assert.Len(t, targets, 3)
}

func TestSaveContactsGlobalEmailDedup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme"})
	require.NoError(t, err)
	_, err = InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme Subsidiary"})
	require.NoError(t, err)

	saved, err := SaveContacts(ctx, db.Pool, 1, []Contact{
		{TargetID: 1, Company: "Acme", Name: "Jane Doe", Email: "jane@acme.com", Title: "Recruiter", Source: "apollo"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	before, err := CountContacts(ctx, db.Pool)
	require.NoError(t, err)

	// same email surfacing for a different target saves nothing
	saved, err = SaveContacts(ctx, db.Pool, 2, []Contact{
		{TargetID: 2, Company: "Acme Subsidiary", Name: "Jane Doe", Email: "jane@acme.com", Title: "Recruiter", Source: "linkedin"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	after, err := CountContacts(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, before, after, "duplicate email must not change the contact count")

	// and the second target reads as exhausted, not found
	target, err := GetTarget(ctx, db.Pool, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, target.ContactStatus)
}

func TestSaveContactsFlipsTargetStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme"})
	require.NoError(t, err)

	saved, err := SaveContacts(ctx, db.Pool, 1, []Contact{
		{TargetID: 1, Company: "Acme", Name: "Jane Doe", Email: "jane@acme.com", Title: "Technical Recruiter", Source: "apollo"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, saved)

	target, err := GetTarget(ctx, db.Pool, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, target.ContactStatus)

	exists, err := ContactEmailExists(ctx, db.Pool, "jane@acme.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveContactsSkipsEmptyEmailAndFillsType(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := InsertTargetIgnore(ctx, db.Pool, TargetInsert{Company: "Acme"})
	require.NoError(t, err)

	saved, err := SaveContacts(ctx, db.Pool, 1, []Contact{
		{TargetID: 1, Company: "Acme", Name: "No Email", Title: "Recruiter"},
		{TargetID: 1, Company: "Acme", Name: "Pat Lee", Email: "pat@acme.com", Title: "Head of People"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	contacts, err := ListContacts(ctx, db.Pool, ListContactsOpts{TargetID: 1})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "hiring_manager", contacts[0].ContactType)
}

func TestContactTypeFromTitle(t *testing.T) {
	assert.Equal(t, "recruiter", ContactTypeFromTitle("Senior Technical Recruiter"))
	assert.Equal(t, "recruiter", ContactTypeFromTitle("RECRUITER"))
	assert.Equal(t, "hiring_manager", ContactTypeFromTitle("Head of Talent Acquisition"))
	assert.Equal(t, "hiring_manager", ContactTypeFromTitle(""))
}

func TestIdentityUsageRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// unknown index loads zero values, not an error
	u, err := LoadIdentityUsage(ctx, db.Pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, u.UsedToday)

	lastUsed := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, SaveIdentityUsage(ctx, db.Pool, IdentityUsage{Index: 0, UsedToday: 7, LastUsed: lastUsed}))
	require.NoError(t, SaveIdentityUsage(ctx, db.Pool, IdentityUsage{Index: 0, UsedToday: 8, LastUsed: lastUsed}))

	u, err = LoadIdentityUsage(ctx, db.Pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, u.UsedToday, "save is an upsert")
	assert.True(t, u.LastUsed.Equal(lastUsed))
}

func TestRotationCursorRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cursor, err := LoadRotationCursor(ctx, db.Pool, "linkedin")
	require.NoError(t, err)
	assert.Equal(t, 0, cursor)

	require.NoError(t, SaveRotationCursor(ctx, db.Pool, "linkedin", 2))
	cursor, err = LoadRotationCursor(ctx, db.Pool, "linkedin")
	require.NoError(t, err)
	assert.Equal(t, 2, cursor)
}

func TestConnectionsDedupeOnProfileURL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := Connection{ProfileURL: "https://www.linkedin.com/in/jane-doe", Name: "Jane Doe", Title: "Recruiter", Company: "Acme"}
	added, err := InsertConnectionIgnore(ctx, db.Pool, c)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = InsertConnectionIgnore(ctx, db.Pool, c)
	require.NoError(t, err)
	assert.False(t, added)

	n, err := CountConnections(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, err := ConnectionExists(ctx, db.Pool, c.ProfileURL)
	require.NoError(t, err)
	assert.True(t, exists)
}
