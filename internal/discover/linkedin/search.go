package linkedin

import (
	"context"
	"strings"

	"autopilot-engine/internal/snapshot"
	"autopilot-engine/internal/store"
)

// dumpJS serializes the page into the line format the snapshot scanner
// consumes: one `link "<text>" <href>` line per profile anchor, one
// `StaticText "<text>"` line per text node under it.
const dumpJS = `(() => {
	const lines = [];
	const q = s => s.replace(/\s+/g, ' ').trim().replace(/"/g, "'");
	const walk = node => {
		if (node.nodeType === Node.TEXT_NODE) {
			const t = q(node.textContent);
			if (t) lines.push('StaticText "' + t + '"');
			return;
		}
		if (node.nodeType !== Node.ELEMENT_NODE) return;
		const tag = node.tagName;
		if (tag === 'SCRIPT' || tag === 'STYLE' || tag === 'CODE') return;
		if (tag === 'A' && node.href && node.href.includes('linkedin.com/in/')) {
			lines.push('link "' + q(node.textContent) + '" ' + node.href);
			return;
		}
		for (const child of node.childNodes) walk(child);
	};
	walk(document.querySelector('main') || document.body);
	return lines.join('\n');
})()`

// resultsPage adapts one loaded search page to the extractor's row model.
type resultsPage struct {
	b      Browser
	target store.Target
}

func (p *resultsPage) Rows(ctx context.Context) ([]snapshot.ResultRow, error) {
	var dump string
	if err := p.b.Evaluate(ctx, dumpJS, &dump); err != nil {
		return nil, err
	}
	return rowsFromDump(dump), nil
}

func rowsFromDump(dump string) []snapshot.ResultRow {
	var rows []snapshot.ResultRow
	sc := snapshot.NewScanner(dump)
	for sc.Scan() {
		f := sc.Fragment()
		row := snapshot.ResultRow{
			Index:      len(rows),
			Name:       f.Name,
			Company:    f.Company,
			ProfileURL: f.ProfileURL,
		}
		if f.Title != "" {
			row.Fragments = append(row.Fragments, f.Title)
			row.Text = f.Name + " " + f.Title
			if f.Company != "" {
				row.Text += " at " + f.Company
			}
		} else {
			row.Text = f.Name
		}
		rows = append(rows, row)
	}
	return rows
}

// RevealEmail has nothing to click on LinkedIn; search results never show
// addresses. Fall back to the first.last pattern so outreach still has
// somewhere to go, guessing the mail domain from the company name when no
// domain is configured. The contact keeps the linkedin source tag as its
// estimated-quality signal.
func (p *resultsPage) RevealEmail(ctx context.Context, rowIndex int) (snapshot.ResultRow, error) {
	rows, err := p.Rows(ctx)
	if err != nil {
		return snapshot.ResultRow{}, err
	}
	domain := p.target.CompanyDomain
	if domain == "" {
		domain = FallbackDomain(p.target.Company)
	}
	for _, r := range rows {
		if r.Index != rowIndex {
			continue
		}
		if domain != "" {
			r.Email = EstimateEmail(r.Name, domain)
		}
		return r, nil
	}
	return snapshot.ResultRow{}, nil
}

// FallbackDomain guesses a company's mail domain from its display name:
// corporate suffixes dropped, remaining letters squashed, .com appended.
// "Acme Labs Inc." -> "acmelabs.com". Returns "" when nothing usable
// remains.
func FallbackDomain(company string) string {
	var parts []string
	for _, w := range strings.Fields(strings.ToLower(company)) {
		w = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, w)
		switch w {
		case "", "inc", "llc", "ltd", "corp", "corporation", "company", "co", "the":
			continue
		}
		parts = append(parts, w)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "") + ".com"
}

// EstimateEmail guesses first.last@domain from a display name. Returns ""
// when the name doesn't split into at least two usable words.
func EstimateEmail(name, domain string) string {
	var words []string
	for _, w := range strings.Fields(name) {
		w = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r
			case r >= 'A' && r <= 'Z':
				return r + ('a' - 'A')
			default:
				return -1
			}
		}, w)
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) < 2 {
		return ""
	}
	return words[0] + "." + words[len(words)-1] + "@" + domain
}
