package httpapi

import (
	"context"
	"net/http"
)

type IngestHandler struct {
	RunIngest func(ctx context.Context) (added int, err error)
}

// Run polls the alert mailbox once, synchronously; ingestion is fast enough
// not to need the background treatment discovery gets.
func (h IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	added, err := h.RunIngest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "added": added})
}
