package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"autopilot-engine/internal/compose"
	"autopilot-engine/internal/store"
)

type ComposeHandler struct {
	DB           *sql.DB
	Personalizer compose.Personalizer
	FetchProfile func(ctx context.Context, profileURL string) (string, error)
}

type composeDraftReq struct {
	ContactID   int64  `json:"contact_id"`
	Role        string `json:"role,omitempty"`
	Sender      string `json:"sender,omitempty"`
	ProfileText string `json:"profile_text,omitempty"`
	DeepDive    bool   `json:"deep_dive,omitempty"`
}

func (h ComposeHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var req composeDraftReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", 400)
		return
	}
	if req.ContactID <= 0 {
		http.Error(w, "contact_id is required", 400)
		return
	}

	contact, err := store.GetContact(r.Context(), h.DB, req.ContactID)
	if err != nil {
		http.Error(w, "contact not found", 404)
		return
	}

	// Deep dive: pull the live profile page so the draft can reference it.
	// Failures degrade to a plain draft rather than blocking the compose.
	if req.DeepDive && req.ProfileText == "" && contact.ProfileURL != "" && h.FetchProfile != nil {
		text, err := h.FetchProfile(r.Context(), contact.ProfileURL)
		if err != nil {
			log.Printf("[compose] profile fetch failed for %s: %v", contact.ProfileURL, err)
		} else {
			req.ProfileText = text
		}
	}

	draft, err := h.Personalizer.Draft(r.Context(), compose.Request{
		Contact:     contact,
		Role:        req.Role,
		Sender:      req.Sender,
		ProfileText: req.ProfileText,
	})
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, draft)
}
