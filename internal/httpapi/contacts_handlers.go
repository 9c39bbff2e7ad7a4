package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"autopilot-engine/internal/store"
)

type ContactsHandler struct {
	DB *sql.DB
}

func (h ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var targetID int64
	if v := q.Get("target_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "invalid target_id", 400)
			return
		}
		targetID = n
	}
	limit := 1000
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	contacts, err := store.ListContacts(r.Context(), h.DB, store.ListContactsOpts{
		TargetID: targetID,
		Limit:    limit,
	})
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, contacts)
}

func (h ContactsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r.URL.Path, "/contacts/")
	if !ok {
		return
	}
	c, err := store.GetContact(r.Context(), h.DB, id)
	if err != nil {
		http.Error(w, "not found", 404)
		return
	}
	writeJSON(w, c)
}
