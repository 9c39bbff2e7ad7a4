package linkedin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot-engine/internal/browser"
	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/identity"
	"autopilot-engine/internal/session"
	"autopilot-engine/internal/store"
)

// fakeBrowser always lands authenticated and replays scripted dumps, one
// per Evaluate call (the last repeats).
type fakeBrowser struct {
	dumps     []string
	dumpCalls int
	navigated []string
	scrolls   int
	logins    int
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeBrowser) CurrentURL(context.Context) (string, error) {
	return "https://www.linkedin.com/feed/", nil
}

func (f *fakeBrowser) Fill(_ context.Context, sel, _ string) error {
	if sel == "#username" {
		f.logins++
	}
	return nil
}

func (f *fakeBrowser) Click(context.Context, string) error { return nil }

func (f *fakeBrowser) Cookies(context.Context) ([]browser.Cookie, error) {
	return []browser.Cookie{{Name: "li_at", Value: "tok"}}, nil
}

func (f *fakeBrowser) SetCookies(context.Context, []browser.Cookie) error { return nil }

func (f *fakeBrowser) Sleep(context.Context, time.Duration, time.Duration) {}

func (f *fakeBrowser) Evaluate(_ context.Context, _ string, out any) error {
	i := f.dumpCalls
	if i >= len(f.dumps) {
		i = len(f.dumps) - 1
	}
	f.dumpCalls++
	if p, ok := out.(*string); ok && i >= 0 {
		*p = f.dumps[i]
	}
	return nil
}

func (f *fakeBrowser) ScrollBy(context.Context, int) error {
	f.scrolls++
	return nil
}

type memUsage struct {
	usage   map[int]store.IdentityUsage
	cursors map[string]int
}

func newMemUsage() *memUsage {
	return &memUsage{usage: map[int]store.IdentityUsage{}, cursors: map[string]int{}}
}

func (m *memUsage) LoadIdentityUsage(_ context.Context, idx int) (store.IdentityUsage, error) {
	u := m.usage[idx]
	u.Index = idx
	return u, nil
}

func (m *memUsage) SaveIdentityUsage(_ context.Context, u store.IdentityUsage) error {
	m.usage[u.Index] = u
	return nil
}

func (m *memUsage) LoadRotationCursor(_ context.Context, name string) (int, error) {
	return m.cursors[name], nil
}

func (m *memUsage) SaveRotationCursor(_ context.Context, name string, cursor int) error {
	m.cursors[name] = cursor
	return nil
}

func testBackend(t *testing.T, fb *fakeBrowser, ids ...*identity.Identity) *Backend {
	t.Helper()
	return &Backend{
		Browser:  fb,
		Rotator:  identity.NewRotator(ids, 0),
		Sessions: session.NewManager(t.TempDir(), func(string) (string, error) { return "pw", nil }, nil),
		Store:    newMemUsage(),
	}
}

func TestSearchURL(t *testing.T) {
	u := SearchURL(store.Target{Company: "Acme Inc"})
	assert.Equal(t, "https://www.linkedin.com/search/results/people/?keywords=Acme+Inc+recruiter+OR+hiring+manager+OR+HR", u)
}

func TestEstimateEmail(t *testing.T) {
	assert.Equal(t, "jane.doe@acme.com", EstimateEmail("Jane Doe", "acme.com"))
	assert.Equal(t, "jane.doe@acme.com", EstimateEmail("Jane M. Doe", "acme.com"))
	assert.Equal(t, "mary.oconnor@acme.com", EstimateEmail("Mary O'Connor", "acme.com"))
	assert.Empty(t, EstimateEmail("Madonna", "acme.com"))
	assert.Empty(t, EstimateEmail("", "acme.com"))
}

const searchDump = `heading "Results"
link "Jane Doe" https://www.linkedin.com/in/jane-doe
StaticText "Senior Technical Recruiter at Acme"
StaticText "Greater Boston Area"
link "John Roe" https://www.linkedin.com/in/john-roe
StaticText "Talent Acquisition Partner at Acme"`

func TestRowsFromDump(t *testing.T) {
	rows := rowsFromDump(searchDump)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, "Acme", rows[0].Company)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", rows[0].ProfileURL)
	assert.Contains(t, rows[0].Fragments, "Senior Technical Recruiter")

	assert.Equal(t, "John Roe", rows[1].Name)
	assert.Equal(t, "Talent Acquisition Partner", rows[1].Fragments[0])
}

func TestRevealEmailEstimatesFromDomain(t *testing.T) {
	fb := &fakeBrowser{dumps: []string{searchDump}}
	page := &resultsPage{b: fb, target: store.Target{Company: "Acme", CompanyDomain: "acme.com"}}

	row, err := page.RevealEmail(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@acme.com", row.Email)
}

// Ingested targets carry no configured domain; the estimate must still
// land on one derived from the company name, or every row would be
// dropped for want of an email.
func TestRevealEmailDerivesDomainFromCompanyName(t *testing.T) {
	fb := &fakeBrowser{dumps: []string{searchDump}}
	page := &resultsPage{b: fb, target: store.Target{Company: "Acme Inc."}}

	row, err := page.RevealEmail(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@acme.com", row.Email)
}

func TestFallbackDomain(t *testing.T) {
	assert.Equal(t, "acme.com", FallbackDomain("Acme Inc."))
	assert.Equal(t, "acmelabs.com", FallbackDomain("Acme Labs, LLC"))
	assert.Equal(t, "acme.com", FallbackDomain("The Acme Company"))
	assert.Empty(t, FallbackDomain("Inc."))
	assert.Empty(t, FallbackDomain(""))
}

func TestEnsureReadyRotatesAndExhausts(t *testing.T) {
	fb := &fakeBrowser{dumps: []string{""}}
	b := testBackend(t, fb,
		&identity.Identity{Index: 0, Email: "a@example.com", DailyCap: 1},
		&identity.Identity{Index: 1, Email: "b@example.com", DailyCap: 1},
	)
	ctx := context.Background()

	require.NoError(t, b.EnsureReady(ctx))
	assert.Equal(t, "a@example.com", b.active.Email)
	require.NoError(t, b.RecordUse(ctx))

	require.NoError(t, b.EnsureReady(ctx))
	assert.Equal(t, "b@example.com", b.active.Email)
	require.NoError(t, b.RecordUse(ctx))

	err := b.EnsureReady(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, discover.ErrExhausted))

	// both identities authenticated exactly once
	assert.Equal(t, 2, fb.logins)
}

func TestRecordUsePersistsUsageAndCursor(t *testing.T) {
	fb := &fakeBrowser{dumps: []string{""}}
	b := testBackend(t, fb,
		&identity.Identity{Index: 0, Email: "a@example.com", DailyCap: 10},
	)
	mem := b.Store.(*memUsage)
	ctx := context.Background()

	require.NoError(t, b.EnsureReady(ctx))
	require.NoError(t, b.RecordUse(ctx))

	assert.Equal(t, 1, mem.usage[0].UsedToday)
	assert.Contains(t, mem.cursors, rotatorName)
}

const connectionsDump = `link "Jane Doe" https://www.linkedin.com/in/jane-doe
StaticText "Senior Technical Recruiter at Acme"
link "John Roe" https://www.linkedin.com/in/john-roe
StaticText "Engineering Manager at Globex"`

type memConnections struct {
	byURL map[string]store.Connection
}

func (m *memConnections) InsertConnectionIgnore(_ context.Context, c store.Connection) (bool, error) {
	if m.byURL == nil {
		m.byURL = map[string]store.Connection{}
	}
	if _, ok := m.byURL[c.ProfileURL]; ok {
		return false, nil
	}
	m.byURL[c.ProfileURL] = c
	return true, nil
}

func TestSyncConnectionsStopsAfterThreeEmptyPasses(t *testing.T) {
	// every pass sees the same two entries; only the first pass adds
	fb := &fakeBrowser{dumps: []string{connectionsDump}}
	b := testBackend(t, fb, &identity.Identity{Index: 0, Email: "a@example.com", DailyCap: 10})
	cs := &memConnections{}

	added, err := b.SyncConnections(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Len(t, cs.byURL, 2)

	// pass 1 added, then three empty passes ended the walk
	assert.Equal(t, 4, fb.dumpCalls)

	conn := cs.byURL["https://www.linkedin.com/in/john-roe"]
	assert.Equal(t, "John Roe", conn.Name)
	assert.Equal(t, "Engineering Manager", conn.Title)
	assert.Equal(t, "Globex", conn.Company)
}
