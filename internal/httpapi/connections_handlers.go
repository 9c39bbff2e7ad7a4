package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"sync/atomic"

	"autopilot-engine/internal/store"
)

type ConnectionsHandler struct {
	DB   *sql.DB
	Sync func(ctx context.Context) (added int, err error)

	syncing atomic.Bool
}

func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	conns, err := store.ListConnections(r.Context(), h.DB, limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, conns)
}

// PostSync drives a browser through the whole connections list, so only one
// sync may be in flight; it shares a Chrome profile with discovery runs and
// the caller is expected to not overlap the two.
func (h *ConnectionsHandler) PostSync(w http.ResponseWriter, r *http.Request) {
	if h.Sync == nil {
		http.Error(w, "connections sync not configured", 503)
		return
	}
	if !h.syncing.CompareAndSwap(false, true) {
		http.Error(w, "a connections sync is already running", 409)
		return
	}
	defer h.syncing.Store(false)

	added, err := h.Sync(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "added": added})
}
