package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot-engine/internal/store"
)

func TestParseDraft(t *testing.T) {
	d := ParseDraft("Subject: Quick intro\n\nHi Jane,\n\nShort note.")
	assert.Equal(t, "Quick intro", d.Subject)
	assert.Equal(t, "Hi Jane,\n\nShort note.", d.Body)
}

func TestParseDraftWithoutSubjectLine(t *testing.T) {
	d := ParseDraft("Hi Jane,\n\nShort note.")
	assert.Equal(t, "Quick question", d.Subject)
	assert.Contains(t, d.Body, "Hi Jane,")
}

func TestTemplateDraft(t *testing.T) {
	d, err := Template{}.Draft(context.Background(), Request{
		Contact: store.Contact{Name: "Jane Doe", Title: "Technical Recruiter", Company: "Acme"},
		Role:    "backend engineering",
		Sender:  "Alex Smith",
	})
	require.NoError(t, err)

	assert.Equal(t, "Opportunities at Acme", d.Subject)
	assert.True(t, strings.HasPrefix(d.Body, "Hi Jane,"), "greets by first name")
	assert.Contains(t, d.Body, "backend engineering")
	assert.Contains(t, d.Body, "Alex Smith")
}

func TestTemplateDraftDefaults(t *testing.T) {
	d, err := Template{}.Draft(context.Background(), Request{
		Contact: store.Contact{Name: "Madonna", Company: "Globex"},
	})
	require.NoError(t, err)
	assert.Contains(t, d.Body, "Hi Madonna,")
	assert.Contains(t, d.Body, "software engineering")
}
