package discover

import "strings"

// corpNoise carries no identity: "Acme Inc." and "Acme LLC" are the same
// company for our purposes.
var corpNoise = map[string]bool{
	"inc": true, "inc.": true, "llc": true, "ltd": true,
	"corp": true, "corporation": true, "company": true, "co": true,
	"the": true,
}

// VerifyCompanyMatch decides whether a scraped company string refers to the
// target company. Exact match, containment either way, or at least one
// meaningful overlapping word after stripping corporate noise.
func VerifyCompanyMatch(targetCompany, scrapedCompany string) bool {
	if targetCompany == "" || scrapedCompany == "" {
		return false
	}

	a := strings.ToLower(strings.TrimSpace(targetCompany))
	b := strings.ToLower(strings.TrimSpace(scrapedCompany))

	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	bWords := map[string]bool{}
	for _, w := range strings.Fields(b) {
		bWords[w] = true
	}
	for _, w := range strings.Fields(a) {
		if corpNoise[w] {
			continue
		}
		if bWords[w] {
			return true
		}
	}
	return false
}
