// Package session restores, verifies, and persists authenticated LinkedIn
// browser sessions, one cookie jar per identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopilot-engine/internal/browser"
)

const (
	feedURL  = "https://www.linkedin.com/feed/"
	loginURL = "https://www.linkedin.com/login"
)

// ErrChallenge reports that the site interposed a checkpoint, captcha, or
// 2FA step that only a human can clear.
var ErrChallenge = errors.New("security challenge")

// Browser is the slice of the driver the session flow needs. *browser.Driver
// satisfies it.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Fill(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	Cookies(ctx context.Context) ([]browser.Cookie, error)
	SetCookies(ctx context.Context, cookies []browser.Cookie) error
	Sleep(ctx context.Context, min, max time.Duration)
}

// Prompter suspends the run until an operator clears a challenge in the
// visible browser window and signals completion.
type Prompter interface {
	Await(ctx context.Context, reason string) error
}

// Credentials resolves a password for an identity email, normally backed by
// the OS keyring.
type Credentials func(email string) (string, error)

// Manager owns the cookie jars under dir and drives login when a jar is
// stale or missing.
type Manager struct {
	Dir      string
	Creds    Credentials
	Prompter Prompter
}

func NewManager(dataDir string, creds Credentials, p Prompter) *Manager {
	return &Manager{Dir: filepath.Join(dataDir, "sessions"), Creds: creds, Prompter: p}
}

func (m *Manager) jarPath(email string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, email)
	return filepath.Join(m.Dir, safe+".json")
}

// Load returns the saved jar for email, or nil when none exists.
func (m *Manager) Load(email string) ([]browser.Cookie, error) {
	raw, err := os.ReadFile(m.jarPath(email))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var cookies []browser.Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return cookies, nil
}

func (m *Manager) Save(email string, cookies []browser.Cookie) error {
	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	raw, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := m.jarPath(email) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, m.jarPath(email)); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Discard removes a jar that no longer authenticates.
func (m *Manager) Discard(email string) error {
	err := os.Remove(m.jarPath(email))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// EnsureAuthenticated brings b to a logged-in feed for email: restore the
// saved jar if it still works, otherwise run the credential login, handing
// challenges to the operator. On success the fresh jar is persisted.
func (m *Manager) EnsureAuthenticated(ctx context.Context, b Browser, email string) error {
	saved, err := m.Load(email)
	if err != nil {
		return err
	}
	if len(saved) > 0 {
		if err := b.SetCookies(ctx, saved); err != nil {
			return err
		}
		if err := b.Navigate(ctx, feedURL); err != nil {
			return err
		}
		b.Sleep(ctx, 2*time.Second, 4*time.Second)
		ok, err := m.loggedIn(ctx, b)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		log.Printf("[session] saved session for %s is stale, re-authenticating", email)
		if err := m.Discard(email); err != nil {
			return err
		}
	}
	return m.login(ctx, b, email)
}

func (m *Manager) login(ctx context.Context, b Browser, email string) error {
	password, err := m.Creds(email)
	if err != nil {
		return fmt.Errorf("credentials for %s: %w", email, err)
	}
	if err := b.Navigate(ctx, loginURL); err != nil {
		return err
	}
	if err := b.Fill(ctx, "#username", email); err != nil {
		return err
	}
	b.Sleep(ctx, 500*time.Millisecond, time.Second)
	if err := b.Fill(ctx, "#password", password); err != nil {
		return err
	}
	b.Sleep(ctx, 500*time.Millisecond, time.Second)
	if err := b.Click(ctx, `button[type="submit"]`); err != nil {
		return err
	}
	b.Sleep(ctx, 3*time.Second, 5*time.Second)

	u, err := b.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if IsChallenge(u) {
		if m.Prompter == nil {
			return fmt.Errorf("login %s: %w", email, ErrChallenge)
		}
		log.Printf("[session] challenge for %s, waiting for operator", email)
		if err := m.Prompter.Await(ctx, "security challenge for "+email); err != nil {
			return err
		}
		if u, err = b.CurrentURL(ctx); err != nil {
			return err
		}
	}

	ok, err := m.loggedIn(ctx, b)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("login %s: landed on %s", email, u)
	}

	cookies, err := b.Cookies(ctx)
	if err != nil {
		return err
	}
	if err := m.Save(email, cookies); err != nil {
		return err
	}
	log.Printf("[session] authenticated %s (%d cookies saved)", email, len(cookies))
	return nil
}

// loggedIn checks the landing URL rather than page content; the feed and
// network pages are only reachable authenticated.
func (m *Manager) loggedIn(ctx context.Context, b Browser) (bool, error) {
	u, err := b.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if IsChallenge(u) {
		return false, nil
	}
	return strings.Contains(u, "feed") || strings.Contains(u, "mynetwork"), nil
}

// IsChallenge reports whether url is a checkpoint, captcha, or 2FA
// interstitial.
func IsChallenge(url string) bool {
	u := strings.ToLower(url)
	for _, marker := range []string{"checkpoint/challenge", "checkpoint/lg", "captcha", "add-phone", "verify"} {
		if strings.Contains(u, marker) {
			return true
		}
	}
	return false
}
