package discover

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"autopilot-engine/internal/snapshot"
	"autopilot-engine/internal/store"
)

var reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ResultsPage is one loaded search-results page for a target. Rows returns
// the structured row model; RevealEmail triggers the page's email-unlock
// control for one row (if present) and re-reads it.
type ResultsPage interface {
	Rows(ctx context.Context) ([]snapshot.ResultRow, error)
	RevealEmail(ctx context.Context, rowIndex int) (snapshot.ResultRow, error)
}

// Extractor turns result rows into contacts for one target. It processes a
// bounded prefix of the available rows and sleeps a jittered delay between
// them; both are deliberate throttles, not tunables to crank up.
type Extractor struct {
	Source   string
	MaxRows  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Extract walks up to MaxRows rows, already deduped against same-run
// duplicates. Row-level failures are logged and never abort the remaining
// rows.
func (e *Extractor) Extract(ctx context.Context, target store.Target, page ResultsPage) []store.Contact {
	rows, err := page.Rows(ctx)
	if err != nil {
		log.Printf("[%s] rows unavailable for %q: %v", e.Source, target.Company, err)
		return nil
	}
	if len(rows) == 0 {
		log.Printf("[%s] no results for %q", e.Source, target.Company)
		return nil
	}

	maxRows := e.MaxRows
	if maxRows <= 0 {
		maxRows = 3
	}
	if len(rows) < maxRows {
		maxRows = len(rows)
	}

	var out []store.Contact
	seen := map[string]bool{}

	for i := 0; i < maxRows; i++ {
		c, err := e.extractRow(ctx, target, page, rows[i])
		switch {
		case err == nil:
			if !seen[c.Email] {
				seen[c.Email] = true
				out = append(out, c)
				log.Printf("[%s] extracted: %s <%s> - %s", e.Source, c.Name, c.Email, c.Title)
			}
		case err == ErrCompanyMismatch:
			log.Printf("[%s] company mismatch: %q vs %q", e.Source, target.Company, rows[i].Company)
		case err == ErrNoEmail:
			// dropped silently; email is the admission criterion
		default:
			log.Printf("[%s] error extracting row %d: %v", e.Source, i, err)
		}

		if i < maxRows-1 {
			e.sleep(ctx)
		}
	}

	return out
}

func (e *Extractor) extractRow(ctx context.Context, target store.Target, page ResultsPage, row snapshot.ResultRow) (store.Contact, error) {
	// Domain-located targets skip the match gate: the domain search is
	// already authoritative.
	if target.CompanyDomain == "" && !VerifyCompanyMatch(target.Company, row.Company) {
		return store.Contact{}, ErrCompanyMismatch
	}

	title := ResolveTitle(row)

	email := row.Email
	if email == "" {
		updated, err := page.RevealEmail(ctx, row.Index)
		if err != nil {
			return store.Contact{}, fmt.Errorf("reveal email: %w", err)
		}
		email = updated.Email
		if email == "" {
			email = reEmail.FindString(updated.Text)
		}
	}
	if email == "" {
		return store.Contact{}, ErrNoEmail
	}

	return store.Contact{
		TargetID:    target.ID,
		Company:     target.Company,
		Name:        row.Name,
		Email:       strings.TrimSpace(email),
		Title:       title,
		Department:  target.Department,
		Source:      e.Source,
		ProfileURL:  row.ProfileURL,
		ContactType: store.ContactTypeFromTitle(title),
	}, nil
}

// sleep pauses a jittered interval to keep the traffic cadence human-ish.
func (e *Extractor) sleep(ctx context.Context) {
	min, max := e.MinDelay, e.MaxDelay
	if min <= 0 && max <= 0 {
		min, max = 2*time.Second, 4*time.Second
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
