package discover

import "errors"

// Designed outcomes, not failures. Callers branch on these instead of
// pattern-matching log strings.
var (
	// ErrCompanyMismatch: the row's company failed the match gate. Row skipped.
	ErrCompanyMismatch = errors.New("company mismatch")

	// ErrNoEmail: no address could be resolved for the row. Email presence is
	// the admission criterion for a contact to exist, so the row is dropped.
	ErrNoEmail = errors.New("no email found")

	// ErrExhausted: every identity (or the daily quota) is spent. The run
	// stops early and reports partial results.
	ErrExhausted = errors.New("daily capacity exhausted")

	// ErrAuth: a session could not be established even after the operator
	// prompt. Fatal for the current run.
	ErrAuth = errors.New("authentication failed")
)
