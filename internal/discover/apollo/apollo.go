// Package apollo drives people discovery in the Apollo.io web app through a
// real browser session.
package apollo

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/identity"
	"autopilot-engine/internal/session"
	"autopilot-engine/internal/snapshot"
	"autopilot-engine/internal/store"
)

const (
	baseURL   = "https://app.apollo.io"
	peopleURL = baseURL + "/#/people"
)

// usageIdx is the identity_usage row that tracks the single Apollo account.
// Negative so it can never collide with a LinkedIn identity index.
const usageIdx = -1

// Browser is the slice of the driver Apollo needs. *browser.Driver
// satisfies it.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	OuterHTML(ctx context.Context, sel string) (string, error)
	ClickInRow(ctx context.Context, rowSel string, idx int, wants ...string) (bool, error)
	Sleep(ctx context.Context, min, max time.Duration)
}

// Backend runs searches against an already-provisioned Apollo account. The
// account logs in interactively the first time; after that the browser
// profile carries the session.
type Backend struct {
	Browser  Browser
	Quota    *identity.Quota
	Store    discover.UsageStore
	Prompter session.Prompter

	loaded bool
}

func (b *Backend) Name() string { return "apollo" }

// EnsureReady checks today's budget, then verifies the web app is not
// sitting on its login screen. An unauthenticated app suspends the run for
// the operator rather than failing it.
func (b *Backend) EnsureReady(ctx context.Context) error {
	if err := b.loadUsage(ctx); err != nil {
		return err
	}
	if !b.Quota.Allow() {
		return fmt.Errorf("apollo daily cap of %d reached: %w", b.Quota.Cap, discover.ErrExhausted)
	}

	if err := b.Browser.Navigate(ctx, peopleURL); err != nil {
		return err
	}
	b.Browser.Sleep(ctx, 2*time.Second, 4*time.Second)

	u, err := b.Browser.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if !isLoginURL(u) {
		return nil
	}
	if b.Prompter == nil {
		return fmt.Errorf("apollo session expired: %w", discover.ErrAuth)
	}
	log.Printf("[apollo] not logged in, waiting for operator")
	if err := b.Prompter.Await(ctx, "apollo login required"); err != nil {
		return err
	}
	if u, err = b.Browser.CurrentURL(ctx); err != nil {
		return err
	}
	if isLoginURL(u) {
		return fmt.Errorf("apollo still on login page: %w", discover.ErrAuth)
	}
	return nil
}

// Search loads the people search for one target and hands back the results
// page. Domain-scoped searches are preferred; name search is the fallback.
func (b *Backend) Search(ctx context.Context, t store.Target) (discover.ResultsPage, error) {
	if err := b.Browser.Navigate(ctx, SearchURL(t)); err != nil {
		return nil, err
	}
	// Apollo renders the grid client-side after the route change.
	b.Browser.Sleep(ctx, 3*time.Second, 5*time.Second)
	return &resultsPage{b: b.Browser}, nil
}

func (b *Backend) RecordUse(ctx context.Context) error {
	b.Quota.RecordUse()
	return b.Store.SaveIdentityUsage(ctx, store.IdentityUsage{
		Index:     usageIdx,
		UsedToday: b.Quota.UsedToday,
		LastUsed:  b.Quota.LastUsed,
	})
}

func (b *Backend) loadUsage(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	u, err := b.Store.LoadIdentityUsage(ctx, usageIdx)
	if err != nil {
		return fmt.Errorf("load apollo usage: %w", err)
	}
	b.Quota.UsedToday = u.UsedToday
	b.Quota.LastUsed = u.LastUsed
	b.loaded = true
	return nil
}

func isLoginURL(u string) bool {
	lu := strings.ToLower(u)
	return strings.Contains(lu, "login") || strings.Contains(lu, "sign-in") || strings.Contains(lu, "signup")
}

// SearchURL builds the hash-routed people search for a target. Everything
// lives in the fragment, so the query is assembled by hand rather than with
// url.Values.
func SearchURL(t store.Target) string {
	var parts []string
	if t.CompanyDomain != "" {
		parts = append(parts, "organizationDomains[]="+url.QueryEscape(t.CompanyDomain))
	} else {
		parts = append(parts, "organizationName="+url.QueryEscape(t.Company))
	}
	for _, title := range TitlesForDepartment(t.Department) {
		parts = append(parts, "personTitles[]="+url.QueryEscape(title))
	}
	parts = append(parts, "page=1")
	return peopleURL + "?" + strings.Join(parts, "&")
}

// TitlesForDepartment narrows the recruiter-title filter to the hiring
// department when one is known.
func TitlesForDepartment(dept string) []string {
	switch strings.ToLower(strings.TrimSpace(dept)) {
	case "engineering", "tech", "technology":
		return []string{"Technical Recruiter", "Engineering Recruiter"}
	case "marketing":
		return []string{"Marketing Recruiter", "Talent Acquisition"}
	case "sales":
		return []string{"Sales Recruiter", "Talent Acquisition"}
	case "design":
		return []string{"Design Recruiter", "Creative Recruiter"}
	case "hr", "people":
		return []string{"HR Recruiter", "Talent Acquisition"}
	default:
		return []string{"Recruiter", "Talent Acquisition", "HR Manager"}
	}
}

// resultsPage reads the rendered grid. Apollo's results table exposes ARIA
// row roles, which is what the snapshot parser keys on.
type resultsPage struct {
	b Browser
}

func (p *resultsPage) Rows(ctx context.Context) ([]snapshot.ResultRow, error) {
	html, err := p.b.OuterHTML(ctx, "html")
	if err != nil {
		return nil, err
	}
	return snapshot.ParseResultRows(html)
}

// RevealEmail clicks the row's own "access email" control and re-reads the
// row once the address renders. Every data row carries such a control, so
// the click is scoped to the row or it would unlock a neighbor instead.
// DOM row 0 is the grid header the parser drops, hence the +1.
func (p *resultsPage) RevealEmail(ctx context.Context, rowIndex int) (snapshot.ResultRow, error) {
	clicked, err := p.b.ClickInRow(ctx, `[role="row"]`, rowIndex+1, "access email", "access")
	if err != nil {
		return snapshot.ResultRow{}, err
	}
	if !clicked {
		// no unlock control on the page; return the row unchanged and let
		// the caller decide it has no email
		rows, err := p.Rows(ctx)
		if err != nil {
			return snapshot.ResultRow{}, err
		}
		return rowAt(rows, rowIndex)
	}
	p.b.Sleep(ctx, 2*time.Second, 3*time.Second)

	rows, err := p.Rows(ctx)
	if err != nil {
		return snapshot.ResultRow{}, err
	}
	return rowAt(rows, rowIndex)
}

func rowAt(rows []snapshot.ResultRow, idx int) (snapshot.ResultRow, error) {
	for _, r := range rows {
		if r.Index == idx {
			return r, nil
		}
	}
	return snapshot.ResultRow{}, fmt.Errorf("row %d disappeared after reveal", idx)
}
