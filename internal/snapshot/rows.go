package snapshot

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResultRow is the structured model of one visible search-result row. The
// live-browser adapter produces these from rendered HTML so the extraction
// heuristics never touch the browser directly.
type ResultRow struct {
	Index      int
	Name       string
	Company    string
	ProfileURL string
	Email      string   // set when a mailto link is already visible
	Fragments  []string // individual text blocks under the row
	Text       string   // flattened row text, for regex fallbacks
}

// ParseResultRows extracts the data rows of a people-search table from
// rendered HTML. The header row (first [role="row"]) is dropped.
func ParseResultRows(html string) ([]ResultRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []ResultRow
	doc.Find(`[role="row"]`).Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		out = append(out, parseRow(len(out), row))
	})
	return out, nil
}

func parseRow(index int, row *goquery.Selection) ResultRow {
	r := ResultRow{Index: index}

	if a := row.Find(`a[href*="#/people/"]`).First(); a.Length() > 0 {
		r.Name = cleanText(a.Text())
		if href, ok := a.Attr("href"); ok {
			r.ProfileURL = href
		}
	}
	if a := row.Find(`a[href*="#/organizations/"]`).First(); a.Length() > 0 {
		r.Company = cleanText(a.Text())
	}
	if a := row.Find(`a[href^="mailto:"]`).First(); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			r.Email = strings.TrimPrefix(href, "mailto:")
		}
	}

	// Individual text blocks beat row.Text(), which smashes everything
	// together and makes title selection hopeless.
	row.Find("*").Each(func(_ int, el *goquery.Selection) {
		if el.Children().Length() > 0 {
			return
		}
		t := cleanText(el.Text())
		if len(t) > 2 {
			r.Fragments = append(r.Fragments, t)
		}
	})

	r.Text = cleanText(row.Text())
	return r
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
