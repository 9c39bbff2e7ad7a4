// Package identity tracks per-account daily usage and picks which automation
// account performs the next discovery attempt.
package identity

import (
	"log"
	"time"
)

// Identity is one automation account. Credentials stay in the OS keychain;
// Email doubles as the keyring account reference.
type Identity struct {
	Index     int
	Email     string
	DailyCap  int
	UsedToday int
	LastUsed  time.Time
}

// resetIfStale zeroes the counter when the identity was last used on an
// earlier calendar day.
func (id *Identity) resetIfStale(now time.Time) {
	if id.LastUsed.IsZero() {
		return
	}
	if dateOf(id.LastUsed).Before(dateOf(now)) {
		id.UsedToday = 0
	}
}

// dateOf truncates to a UTC calendar day. Counters load back from sqlite
// as UTC instants while the clock runs local; comparing each in its own
// location would shift the reset boundary by the zone offset.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Rotator round-robins an ordered identity set from a persistent cursor.
type Rotator struct {
	ids    []*Identity
	cursor int
	now    func() time.Time
}

func NewRotator(ids []*Identity, cursor int) *Rotator {
	if cursor < 0 || (len(ids) > 0 && cursor >= len(ids)) {
		cursor = 0
	}
	return &Rotator{ids: ids, cursor: cursor, now: time.Now}
}

// Next returns the first identity under its daily cap, starting at the
// cursor and advancing past anything at-cap. Nil means every account is
// exhausted for today; callers must treat that as a stop condition, not an
// error.
func (r *Rotator) Next() *Identity {
	if len(r.ids) == 0 {
		return nil
	}

	for range r.ids {
		id := r.ids[r.cursor]
		id.resetIfStale(r.now())

		if id.UsedToday < id.DailyCap {
			log.Printf("[identity] using account #%d (%d/%d today)", id.Index, id.UsedToday, id.DailyCap)
			return id
		}

		r.cursor = (r.cursor + 1) % len(r.ids)
	}

	log.Printf("[identity] all accounts hit daily limit")
	return nil
}

// RecordUse is called after a discovery attempt actually used the identity.
func (r *Rotator) RecordUse(id *Identity) {
	id.UsedToday++
	id.LastUsed = r.now()
}

// Cursor exposes the rotation position for persistence between runs.
func (r *Rotator) Cursor() int { return r.cursor }

// Identities exposes the ordered set for usage persistence.
func (r *Rotator) Identities() []*Identity { return r.ids }
