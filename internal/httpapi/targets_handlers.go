package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"autopilot-engine/internal/events"
	"autopilot-engine/internal/store"
)

type TargetsHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

func (h TargetsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 500
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	targets, err := store.ListTargets(r.Context(), h.DB, store.ListTargetsOpts{
		Status: q.Get("status"),
		Limit:  limit,
	})
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, targets)
}

type createTargetReq struct {
	Company       string `json:"company"`
	CompanyDomain string `json:"company_domain"`
	Department    string `json:"department"`
	JobTitle      string `json:"job_title"`
	Description   string `json:"description"`
}

func (h TargetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTargetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", 400)
		return
	}
	if strings.TrimSpace(req.Company) == "" {
		http.Error(w, "company is required", 400)
		return
	}

	added, err := store.InsertTargetIgnore(r.Context(), h.DB, store.TargetInsert{
		Company:       strings.TrimSpace(req.Company),
		CompanyDomain: strings.TrimSpace(req.CompanyDomain),
		Department:    strings.TrimSpace(req.Department),
		JobTitle:      strings.TrimSpace(req.JobTitle),
		Description:   req.Description,
	})
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if added {
		reqID := RequestIDFrom(r.Context())
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeTargetCreated, 1, map[string]any{
			"company": req.Company,
		}))
	}
	writeJSON(w, map[string]any{"ok": true, "added": added})
}

func (h TargetsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r.URL.Path, "/targets/")
	if !ok {
		return
	}
	t, err := store.GetTarget(r.Context(), h.DB, id)
	if err != nil {
		http.Error(w, "not found", 404)
		return
	}
	writeJSON(w, t)
}

func (h TargetsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r.URL.Path, "/targets/")
	if !ok {
		return
	}
	if err := DeleteTarget(r.Context(), h.DB, id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

// DeleteTarget removes a target and its discovered contacts.
func DeleteTarget(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM contacts WHERE target_id = ?;`, id); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM targets WHERE id = ?;`, id)
	return err
}

func idFromPath(w http.ResponseWriter, path, prefix string) (int64, bool) {
	idStr := strings.TrimPrefix(path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", 400)
		return 0, false
	}
	return id, true
}
