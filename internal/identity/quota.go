package identity

import "time"

// Quota is the single-identity degenerate form of the rotator: one global
// daily counter, no rotation. The Apollo session uses this.
type Quota struct {
	Cap       int
	UsedToday int
	LastUsed  time.Time
	now       func() time.Time
}

func NewQuota(cap int) *Quota {
	return &Quota{Cap: cap, now: time.Now}
}

// Allow reports whether another discovery attempt fits in today's budget,
// resetting the counter across a day boundary first.
func (q *Quota) Allow() bool {
	if !q.LastUsed.IsZero() && dateOf(q.LastUsed).Before(dateOf(q.now())) {
		q.UsedToday = 0
	}
	return q.UsedToday < q.Cap
}

func (q *Quota) RecordUse() {
	q.UsedToday++
	q.LastUsed = q.now()
}
