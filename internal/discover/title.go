package discover

import (
	"regexp"
	"strings"

	"autopilot-engine/internal/snapshot"
)

// Fragments containing any of these are title candidates. Note "hr " keeps
// its trailing space so it doesn't fire on e.g. "three".
var titleKeywords = []string{
	"recruiter", "talent", "acquisition", "hr ", "human resources",
	"people", "staffing", "sourcing",
}

// Anything longer reads like a bio blurb, not a title.
const maxTitleLen = 60

// Ordered fallback patterns over the flattened row text, tried when no
// individual fragment survives the keyword filter.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)((?:senior\s+)?(?:technical\s+)?recruiter)`),
	regexp.MustCompile(`(?i)(talent\s+acquisition(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(hr\s+manager)`),
	regexp.MustCompile(`(?i)(human\s+resources\s+\w+)`),
	regexp.MustCompile(`(?i)(recruiting\s+\w+)`),
	regexp.MustCompile(`(?i)(people\s+operations\s+\w+)`),
}

// ResolveTitle picks the job title out of a result row: the longest
// keyword-bearing fragment within the length bound, else the first fallback
// pattern match. Empty string when nothing plausible exists.
func ResolveTitle(row snapshot.ResultRow) string {
	var best string
	for _, frag := range row.Fragments {
		// the person's name and the company name also float around the row
		if row.Name != "" && strings.Contains(row.Name, frag) {
			continue
		}
		if row.Company != "" && strings.Contains(row.Company, frag) {
			continue
		}

		low := strings.ToLower(frag)
		hit := false
		for _, kw := range titleKeywords {
			if strings.Contains(low, kw) {
				hit = true
				break
			}
		}
		if !hit || len(frag) > maxTitleLen {
			continue
		}
		if len(frag) > len(best) {
			best = frag
		}
	}
	if best != "" {
		return best
	}

	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(row.Text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
