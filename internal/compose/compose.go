// Package compose drafts personalized outreach emails for discovered
// contacts.
package compose

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"autopilot-engine/internal/store"
)

// Draft is one ready-to-edit outreach email.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Request carries everything the personalizer may use. ProfileText is the
// optional deep-dive snapshot of the contact's public profile.
type Request struct {
	Contact     store.Contact
	Role        string // role the sender is pursuing
	Sender      string // sender's display name
	ProfileText string
}

// Personalizer produces a draft for one contact.
type Personalizer interface {
	Draft(ctx context.Context, req Request) (Draft, error)
}

// OpenAI drafts with a chat model. Zero value is unusable; construct with
// NewOpenAI.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model}
}

const systemPrompt = `You draft short, direct cold-outreach emails from a job seeker to a recruiter or hiring manager. Three or four sentences, no flattery, no emoji. Reference something concrete about the recipient when profile details are given. Reply with a subject on the first line prefixed "Subject: ", then a blank line, then the body.`

func (o *OpenAI) Draft(ctx context.Context, req Request) (Draft, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recipient: %s, %s at %s.\n", req.Contact.Name, req.Contact.Title, req.Contact.Company)
	if req.Role != "" {
		fmt.Fprintf(&sb, "Sender is pursuing a %s role.\n", req.Role)
	}
	if req.Sender != "" {
		fmt.Fprintf(&sb, "Sender's name: %s.\n", req.Sender)
	}
	if req.ProfileText != "" {
		fmt.Fprintf(&sb, "Recipient's profile:\n%s\n", clip(req.ProfileText, 4000))
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return Draft{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Draft{}, fmt.Errorf("chat completion returned no choices")
	}
	return ParseDraft(resp.Choices[0].Message.Content), nil
}

// ParseDraft splits a model reply into subject and body. A missing
// "Subject:" line degrades to a generic subject rather than failing.
func ParseDraft(reply string) Draft {
	reply = strings.TrimSpace(reply)
	lines := strings.SplitN(reply, "\n", 2)

	first := strings.TrimSpace(lines[0])
	if subj, ok := strings.CutPrefix(first, "Subject:"); ok {
		d := Draft{Subject: strings.TrimSpace(subj)}
		if len(lines) > 1 {
			d.Body = strings.TrimSpace(lines[1])
		}
		return d
	}
	return Draft{Subject: "Quick question", Body: reply}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Template is the no-LLM fallback: a fixed skeleton with the contact's
// details slotted in. Used when no API key is configured.
type Template struct{}

func (Template) Draft(_ context.Context, req Request) (Draft, error) {
	c := req.Contact
	role := req.Role
	if role == "" {
		role = "software engineering"
	}
	firstName := c.Name
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstName)
	fmt.Fprintf(&b, "I came across your profile while researching %s and wanted to reach out directly. ", c.Company)
	fmt.Fprintf(&b, "I'm exploring %s roles and would value a quick conversation about what your team is hiring for.\n\n", role)
	b.WriteString("Would you be open to a short call this week?\n\n")
	if req.Sender != "" {
		fmt.Fprintf(&b, "Best,\n%s\n", req.Sender)
	} else {
		b.WriteString("Best regards\n")
	}

	return Draft{
		Subject: fmt.Sprintf("Opportunities at %s", c.Company),
		Body:    b.String(),
	}, nil
}
