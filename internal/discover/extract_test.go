package discover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot-engine/internal/snapshot"
	"autopilot-engine/internal/store"
)

type fakePage struct {
	rows      []snapshot.ResultRow
	revealed  map[int]snapshot.ResultRow
	revealErr error
}

func (p *fakePage) Rows(ctx context.Context) ([]snapshot.ResultRow, error) {
	return p.rows, nil
}

func (p *fakePage) RevealEmail(ctx context.Context, i int) (snapshot.ResultRow, error) {
	if p.revealErr != nil {
		return snapshot.ResultRow{}, p.revealErr
	}
	if r, ok := p.revealed[i]; ok {
		return r, nil
	}
	return p.rows[i], nil
}

func fastExtractor(source string) *Extractor {
	return &Extractor{
		Source:   source,
		MaxRows:  3,
		MinDelay: time.Millisecond,
		MaxDelay: 2 * time.Millisecond,
	}
}

func TestExtractEndToEndRow(t *testing.T) {
	target := store.Target{ID: 7, Company: "Acme Inc."}
	page := &fakePage{rows: []snapshot.ResultRow{{
		Index:     0,
		Name:      "Jane Roe",
		Company:   "Acme",
		Email:     "jane@acme.com",
		Fragments: []string{"Jane Roe", "Acme", "HR Manager"},
		Text:      "Jane Roe Acme HR Manager",
	}}}

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Roe", got[0].Name)
	assert.Equal(t, "jane@acme.com", got[0].Email)
	assert.Equal(t, "HR Manager", got[0].Title)
	assert.Equal(t, "hiring_manager", got[0].ContactType)
	assert.Equal(t, int64(7), got[0].TargetID)
}

func TestExtractCompanyMismatchSkipsRow(t *testing.T) {
	target := store.Target{Company: "Acme"}
	page := &fakePage{rows: []snapshot.ResultRow{{
		Name: "Jane Roe", Company: "Globex", Email: "jane@globex.com",
	}}}

	assert.Empty(t, fastExtractor("apollo").Extract(context.Background(), target, page))
}

func TestExtractDomainSearchSkipsMatchGate(t *testing.T) {
	// domain-located target: the scraped company never matches textually
	// but the row is still accepted
	target := store.Target{Company: "Acme Holdings", CompanyDomain: "acme.com"}
	page := &fakePage{rows: []snapshot.ResultRow{{
		Name: "Jane Roe", Company: "ACME GmbH", Email: "jane@acme.com",
		Fragments: []string{"Technical Recruiter"},
	}}}

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	require.Len(t, got, 1)
	assert.Equal(t, "recruiter", got[0].ContactType)
}

func TestExtractRevealsHiddenEmail(t *testing.T) {
	target := store.Target{Company: "Acme"}
	page := &fakePage{
		rows: []snapshot.ResultRow{{
			Index: 0, Name: "Jane Roe", Company: "Acme",
			Fragments: []string{"Jane Roe", "Acme", "Recruiter"},
			Text:      "Jane Roe Acme Recruiter Access email",
		}},
		revealed: map[int]snapshot.ResultRow{0: {
			Index: 0, Name: "Jane Roe", Company: "Acme",
			Text: "Jane Roe Acme Recruiter jane.roe@acme.com",
		}},
	}

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	require.Len(t, got, 1)
	assert.Equal(t, "jane.roe@acme.com", got[0].Email)
}

func TestExtractNoEmailDropsRow(t *testing.T) {
	target := store.Target{Company: "Acme"}
	page := &fakePage{rows: []snapshot.ResultRow{{
		Name: "Jane Roe", Company: "Acme",
		Fragments: []string{"Recruiter"}, Text: "Jane Roe Acme Recruiter",
	}}}

	assert.Empty(t, fastExtractor("apollo").Extract(context.Background(), target, page))
}

func TestExtractRowErrorDoesNotAbortRemaining(t *testing.T) {
	target := store.Target{Company: "Acme"}
	page := &fakePage{
		rows: []snapshot.ResultRow{
			{Index: 0, Name: "Broken Row", Company: "Acme"}, // reveal will fail
			{Index: 1, Name: "Jane Roe", Company: "Acme", Email: "jane@acme.com"},
		},
	}
	page.revealErr = errors.New("click timeout")

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Roe", got[0].Name)
}

func TestExtractBoundsRowPrefix(t *testing.T) {
	target := store.Target{Company: "Acme"}
	var rows []snapshot.ResultRow
	for i := 0; i < 8; i++ {
		rows = append(rows, snapshot.ResultRow{
			Index: i, Name: "P", Company: "Acme",
			Email: "p" + string(rune('a'+i)) + "@acme.com",
		})
	}
	page := &fakePage{rows: rows}

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	assert.Len(t, got, 3)
}

func TestExtractSameRunDedup(t *testing.T) {
	target := store.Target{Company: "Acme"}
	page := &fakePage{rows: []snapshot.ResultRow{
		{Index: 0, Name: "Jane Roe", Company: "Acme", Email: "jane@acme.com"},
		{Index: 1, Name: "Jane R.", Company: "Acme", Email: "jane@acme.com"},
	}}

	got := fastExtractor("apollo").Extract(context.Background(), target, page)
	assert.Len(t, got, 1)
}
