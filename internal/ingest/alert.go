package ingest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AlertJob is one posting recovered from a job-alert email.
type AlertJob struct {
	Title    string
	Company  string
	Location string
	URL      string
	SourceID string // linkedin:<jobid> when the view URL carries one
}

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// ParseAlertHTML extracts jobs from a LinkedIn job-alert email. Alert
// templates scatter several anchors per job (logo, title, card body), so
// anchors are merged by job id before emitting.
func ParseAlertHTML(html string) ([]AlertJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	byID := map[string]*AlertJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lh := strings.ToLower(href)
		if !strings.Contains(lh, "linkedin.com") || !strings.Contains(lh, "/jobs/view/") {
			return
		}

		jobURL := unwrapRedirect(href)
		sourceID := alertSourceID(jobURL)
		key := sourceID
		if key == "" {
			key = jobURL
		}

		j, ok := byID[key]
		if !ok {
			j = &AlertJob{URL: jobURL, SourceID: sourceID}
			byID[key] = j
			order = append(order, key)
		}

		if t := squash(a.Text()); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		// "Company · Location" lives in a paragraph on the card
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := squash(p.Text())
			if j.Company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
			}
		})
	})

	out := make([]AlertJob, 0, len(byID))
	for _, key := range order {
		j := byID[key]
		if j.URL == "" || j.Title == "" || j.Company == "" {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

// DepartmentForTitle buckets a job title into the department used to narrow
// recruiter searches. Unrecognized titles stay unbucketed.
func DepartmentForTitle(title string) string {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "engineer", "developer", "sre", "devops", "software", "data scientist"):
		return "engineering"
	case containsAny(t, "marketing", "growth", "content", "seo"):
		return "marketing"
	case containsAny(t, "sales", "account executive", "business development"):
		return "sales"
	case containsAny(t, "designer", "ux", "ui "):
		return "design"
	case containsAny(t, "recruiter", "people ops", "human resources"):
		return "hr"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func alertSourceID(jobURL string) string {
	if m := reJobID.FindStringSubmatch(jobURL); m != nil {
		return "linkedin:" + m[1]
	}
	return ""
}

// unwrapRedirect resolves click-tracking wrappers and strips tracking query
// junk from the final view URL.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	for _, key := range []string{"url", "destination", "redirect"} {
		if inner := u.Query().Get(key); inner != "" {
			if iu, err := url.Parse(inner); err == nil && strings.Contains(iu.Host, "linkedin.com") {
				u = iu
				break
			}
		}
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// betterTitle prefers longer, plausible anchor text over logo alt noise.
func betterTitle(cand, cur string) bool {
	cand = strings.TrimSpace(cand)
	if cand == "" || len(cand) < 4 || len(cand) > 120 {
		return false
	}
	low := strings.ToLower(cand)
	if strings.Contains(low, "view job") || strings.Contains(low, "see all") || strings.Contains(low, "unsubscribe") {
		return false
	}
	return len(cand) > len(cur)
}

func squash(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
