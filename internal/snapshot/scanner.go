// Package snapshot turns rendered-page dumps into structured contact
// fragments. Everything here is deterministic on its input: no browser, no
// network, which is what keeps the matching logic testable.
package snapshot

import (
	"bufio"
	"regexp"
	"strings"
)

// Fragment is one contact record recovered from a snapshot. Fields the
// snapshot didn't expose stay empty (Name defaults to "Unknown").
type Fragment struct {
	Name       string
	Title      string
	Company    string
	ProfileURL string
}

var (
	reProfileSlug = regexp.MustCompile(`linkedin\.com/in/([a-zA-Z0-9\-]+)`)
	reLinkText    = regexp.MustCompile(`link "([^"]+)"`)
	reStaticText  = regexp.MustCompile(`StaticText "([^"]+)"`)
)

// Scanner walks an accessibility-tree text dump line by line and emits one
// Fragment per profile-link marker. It is lazy and single-pass, in the style
// of bufio.Scanner:
//
//	sc := snapshot.NewScanner(dump)
//	for sc.Scan() {
//		f := sc.Fragment()
//		...
//	}
type Scanner struct {
	lines   *bufio.Scanner
	pending *Fragment // started on a profile-link line, still collecting text
	cur     Fragment
	done    bool
}

func NewScanner(text string) *Scanner {
	return &Scanner{lines: bufio.NewScanner(strings.NewReader(text))}
}

// Scan advances to the next completed fragment. A record completes when the
// next profile-link line is seen; a trailing open record is flushed at end
// of input.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	for s.lines.Scan() {
		line := s.lines.Text()

		if isProfileLink(line) {
			next := startFragment(line)
			if s.pending != nil {
				s.cur = *s.pending
				s.pending = next
				return true
			}
			s.pending = next
			continue
		}

		if s.pending == nil {
			continue
		}
		collectText(s.pending, line)
	}

	s.done = true
	if s.pending != nil {
		s.cur = *s.pending
		s.pending = nil
		return true
	}
	return false
}

func (s *Scanner) Fragment() Fragment { return s.cur }

func isProfileLink(line string) bool {
	return strings.Contains(line, "linkedin.com/in/") && strings.Contains(line, "link")
}

func startFragment(line string) *Fragment {
	m := reProfileSlug.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	f := &Fragment{
		ProfileURL: "https://www.linkedin.com/in/" + m[1],
		Name:       "Unknown",
	}
	if nm := reLinkText.FindStringSubmatch(line); nm != nil {
		f.Name = nm[1]
	}
	return f
}

// collectText fills title (and company, when the block carries an
// "X at Y" shape) from the StaticText lines belonging to the record.
func collectText(f *Fragment, line string) {
	if f.Title != "" {
		return
	}
	m := reStaticText.FindStringSubmatch(line)
	if m == nil {
		return
	}
	text := m[1]
	if len(text) <= 3 {
		return
	}
	if strings.Contains(text, " at ") {
		parts := strings.SplitN(text, " at ", 2)
		f.Title = parts[0]
		f.Company = parts[1]
		return
	}
	f.Title = text
}
