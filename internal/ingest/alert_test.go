package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alertHTML = `<html><body>
<table>
  <tr>
    <td><a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trk=alert&refId=x"><img alt="Acme"></a></td>
    <td>
      <a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trk=alert">Senior Backend Engineer</a>
      <p>Acme Inc · Boston, MA (Hybrid)</p>
    </td>
  </tr>
</table>
<table>
  <tr>
    <td>
      <a href="https://www.linkedin.com/jobs/view/4098765432/?trk=alert">Growth Marketing Manager</a>
      <p>Globex · Remote</p>
    </td>
  </tr>
</table>
<a href="https://www.linkedin.com/jobs/search/">See all jobs</a>
</body></html>`

func TestParseAlertHTML(t *testing.T) {
	jobs, err := ParseAlertHTML(alertHTML)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Senior Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Acme Inc", jobs[0].Company)
	assert.Equal(t, "Boston, MA (Hybrid)", jobs[0].Location)
	assert.Equal(t, "linkedin:4012345678", jobs[0].SourceID)
	assert.NotContains(t, jobs[0].URL, "trk=", "tracking query stripped")

	assert.Equal(t, "Growth Marketing Manager", jobs[1].Title)
	assert.Equal(t, "Globex", jobs[1].Company)
}

func TestParseAlertHTMLMergesAnchorsByJobID(t *testing.T) {
	// logo anchor (empty text) and title anchor point at the same job id;
	// they must collapse into one job with the real title
	jobs, err := ParseAlertHTML(alertHTML)
	require.NoError(t, err)
	ids := map[string]int{}
	for _, j := range jobs {
		ids[j.SourceID]++
	}
	assert.Equal(t, 1, ids["linkedin:4012345678"])
}

func TestDepartmentForTitle(t *testing.T) {
	assert.Equal(t, "engineering", DepartmentForTitle("Senior Backend Engineer"))
	assert.Equal(t, "engineering", DepartmentForTitle("DevOps Lead"))
	assert.Equal(t, "marketing", DepartmentForTitle("Growth Marketing Manager"))
	assert.Equal(t, "sales", DepartmentForTitle("Enterprise Account Executive"))
	assert.Equal(t, "design", DepartmentForTitle("Product Designer"))
	assert.Equal(t, "hr", DepartmentForTitle("Technical Recruiter"))
	assert.Equal(t, "", DepartmentForTitle("Chief Financial Officer"))
}

func TestUnwrapRedirect(t *testing.T) {
	got := unwrapRedirect("https://click.example.com/track?url=https%3A%2F%2Fwww.linkedin.com%2Fjobs%2Fview%2F123%2F%3Ftrk%3Dalert")
	assert.Equal(t, "https://www.linkedin.com/jobs/view/123/", got)

	// non-linkedin redirect targets are left wrapped (query stripped only)
	got = unwrapRedirect("https://www.linkedin.com/jobs/view/456/?trk=alert")
	assert.Equal(t, "https://www.linkedin.com/jobs/view/456/", got)
}

func TestSubjectMatches(t *testing.T) {
	assert.True(t, subjectMatches("Your job alert for backend engineer", nil))
	assert.True(t, subjectMatches("Your Job Alert: 8 new jobs", []string{"job alert"}))
	assert.False(t, subjectMatches("Weekly newsletter", []string{"job alert"}))
}

func TestHTMLBodyMultipart(t *testing.T) {
	raw := []byte("From: alerts@example.com\r\n" +
		"Subject: Job alert\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain fallback\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"<p>Hello =3D world</p>\r\n" +
		"--XYZ--\r\n")

	html := htmlBody(raw)
	assert.Contains(t, html, "<p>Hello = world</p>")
}
