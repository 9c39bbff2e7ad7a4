package discover

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"autopilot-engine/internal/snapshot"
)

func TestResolveTitlePrefersKeywordFragmentWithinBound(t *testing.T) {
	bio := "A recruiter of rare talent who has spent fifteen years building people teams across three continents"
	row := snapshot.ResultRow{
		Name:    "John Doe",
		Company: "Acme Corp",
		Fragments: []string{
			"John Doe",
			"Acme Corp",
			"Senior Technical Recruiter",
			bio,
		},
		Text: "John Doe Acme Corp Senior Technical Recruiter " + bio,
	}

	got := ResolveTitle(row)
	assert.Equal(t, "Senior Technical Recruiter", got)
	assert.LessOrEqual(t, len(got), 60)
	assert.True(t, len(bio) > 60, "fixture bio must exceed the length cutoff")
}

func TestResolveTitleSkipsNameAndCompanyFragments(t *testing.T) {
	// the name itself contains a keyword but must not be chosen
	row := snapshot.ResultRow{
		Name:      "Taylor Hrabowski",
		Company:   "People Co",
		Fragments: []string{"Taylor Hrabowski", "People Co", "Staffing Partner"},
		Text:      "Taylor Hrabowski People Co Staffing Partner",
	}
	assert.Equal(t, "Staffing Partner", ResolveTitle(row))
}

func TestResolveTitleRegexFallback(t *testing.T) {
	row := snapshot.ResultRow{
		Name:      "Jane Roe",
		Fragments: []string{"Jane Roe", "Boston, MA"},
		Text:      "Jane Roe Boston, MA Hiring for all roles, HR Manager at heart",
	}
	assert.Equal(t, "HR Manager", ResolveTitle(row))
}

func TestResolveTitleNothingPlausible(t *testing.T) {
	row := snapshot.ResultRow{
		Fragments: []string{"Jane Roe", "Boston, MA"},
		Text:      "Jane Roe Boston, MA",
	}
	assert.Empty(t, ResolveTitle(row))
}

func TestResolveTitleLongestSurvivorWins(t *testing.T) {
	row := snapshot.ResultRow{
		Fragments: []string{"Recruiter", "Senior Technical Recruiter"},
		Text:      "Recruiter Senior Technical Recruiter",
	}
	assert.Equal(t, "Senior Technical Recruiter", ResolveTitle(row))
	assert.False(t, strings.Contains(ResolveTitle(row), "\n"))
}
