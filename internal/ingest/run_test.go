package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot-engine/internal/store"
)

func rawHTMLMessage(subject, html string) []byte {
	return []byte("From: alerts@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		html + "\r\n")
}

func TestImportMessagesMarksFilteredMessagesProcessed(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	alert := `<a href="https://www.linkedin.com/jobs/view/5551234567/?trk=alert">Backend Engineer</a><p>Acme · Remote</p>`
	msgs := []Message{
		{UID: 1, Subject: "Weekly newsletter", RawMessage: rawHTMLMessage("Weekly newsletter", "<p>news</p>")},
		{UID: 2, Subject: "Your job alert: 1 new job", RawMessage: rawHTMLMessage("Your job alert: 1 new job", alert)},
		// matching subject but no html part: import fails, so it must stay
		// unseen and be retried next poll
		{UID: 3, Subject: "Your job alert: broken", RawMessage: nil},
	}

	added, processed, err := importMessages(context.Background(), db.Pool, nil, msgs, []string{"job alert"})
	require.NoError(t, err)

	assert.Equal(t, 1, added)
	// the filtered newsletter is processed too; leaving it unseen would
	// refill the bounded unseen fetch on every poll
	assert.Equal(t, []imap.UID{1, 2}, processed)

	targets, err := store.ListTargets(context.Background(), db.Pool, store.ListTargetsOpts{})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Acme", targets[0].Company)
}
