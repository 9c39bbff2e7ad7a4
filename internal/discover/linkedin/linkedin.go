// Package linkedin drives people discovery on LinkedIn through rotating
// authenticated browser sessions.
package linkedin

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/identity"
	"autopilot-engine/internal/session"
	"autopilot-engine/internal/store"
)

const (
	searchBase     = "https://www.linkedin.com/search/results/people/"
	connectionsURL = "https://www.linkedin.com/mynetwork/invite-connect/connections/"

	// rotatorName keys the persisted rotation cursor.
	rotatorName = "linkedin"
)

// Browser extends the session surface with the read primitives the search
// flow needs. *browser.Driver satisfies it.
type Browser interface {
	session.Browser
	Evaluate(ctx context.Context, js string, out any) error
	ScrollBy(ctx context.Context, px int) error
}

// Backend rotates through configured identities, each with its own daily
// cap and cookie jar.
type Backend struct {
	Browser  Browser
	Rotator  *identity.Rotator
	Sessions *session.Manager
	Store    discover.UsageStore

	active *identity.Identity
	authed map[string]bool
	loaded bool
}

func (b *Backend) Name() string { return "linkedin" }

// EnsureReady picks the next under-cap identity and makes sure it holds a
// live session. Called before every target so a mid-run cap landing on one
// identity rotates to the next instead of stopping the batch.
func (b *Backend) EnsureReady(ctx context.Context) error {
	if err := b.load(ctx); err != nil {
		return err
	}

	id := b.Rotator.Next()
	if id == nil {
		return fmt.Errorf("all linkedin identities at daily cap: %w", discover.ErrExhausted)
	}

	if b.active != id || !b.authed[id.Email] {
		log.Printf("[linkedin] switching to identity %d (%s)", id.Index, id.Email)
		if err := b.Sessions.EnsureAuthenticated(ctx, b.Browser, id.Email); err != nil {
			return fmt.Errorf("identity %s: %w: %v", id.Email, discover.ErrAuth, err)
		}
		b.authed[id.Email] = true
	}
	b.active = id
	return nil
}

// Search loads the people search for one target. The query folds the
// recruiter synonyms in, the title filter does the precise cut later.
func (b *Backend) Search(ctx context.Context, t store.Target) (discover.ResultsPage, error) {
	if err := b.Browser.Navigate(ctx, SearchURL(t)); err != nil {
		return nil, err
	}
	b.Browser.Sleep(ctx, 3*time.Second, 5*time.Second)

	u, err := b.Browser.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	if session.IsChallenge(u) {
		return nil, fmt.Errorf("challenge during search: %w", discover.ErrAuth)
	}
	return &resultsPage{b: b.Browser, target: t}, nil
}

// RecordUse charges the active identity and persists both its counter and
// the rotation cursor.
func (b *Backend) RecordUse(ctx context.Context) error {
	if b.active == nil {
		return nil
	}
	b.Rotator.RecordUse(b.active)
	if err := b.Store.SaveIdentityUsage(ctx, store.IdentityUsage{
		Index:     b.active.Index,
		UsedToday: b.active.UsedToday,
		LastUsed:  b.active.LastUsed,
	}); err != nil {
		return err
	}
	return b.Store.SaveRotationCursor(ctx, rotatorName, b.Rotator.Cursor())
}

// load hydrates persisted usage counters into the in-memory rotator once
// per process.
func (b *Backend) load(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	for _, id := range b.Rotator.Identities() {
		u, err := b.Store.LoadIdentityUsage(ctx, id.Index)
		if err != nil {
			return fmt.Errorf("load usage for identity %d: %w", id.Index, err)
		}
		id.UsedToday = u.UsedToday
		id.LastUsed = u.LastUsed
	}
	b.authed = map[string]bool{}
	b.loaded = true
	return nil
}

// SearchURL builds the people-search query for a target company.
func SearchURL(t store.Target) string {
	q := t.Company + " recruiter OR hiring manager OR HR"
	return searchBase + "?keywords=" + url.QueryEscape(q)
}
