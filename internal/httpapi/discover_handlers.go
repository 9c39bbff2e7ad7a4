package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/events"
)

type DiscoverHandler struct {
	Status       *atomic.Value // httpapi.DiscoverStatus
	Hub          *events.Hub
	RunDiscovery func(ctx context.Context, source string, opts discover.RunOpts) (discover.RunResult, error)
	Resume       func() bool
}

type discoverRunReq struct {
	Source   string `json:"source"` // apollo | linkedin
	TargetID int64  `json:"target_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Run kicks off one discovery batch in the background. A second request
// while one is running is rejected; the browser session is not shareable.
func (h DiscoverHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req discoverRunReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", 400)
		return
	}
	if req.Source != "apollo" && req.Source != "linkedin" {
		http.Error(w, "source must be apollo or linkedin", 400)
		return
	}

	st := h.Status.Load().(DiscoverStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.Status.Store(DiscoverStatus{
		State:     string(discover.StateAuthenticating),
		Running:   true,
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		res, err := h.RunDiscovery(context.Background(), req.Source, discover.RunOpts{
			TargetID: req.TargetID,
			Limit:    req.Limit,
		})

		now := time.Now().Format(time.RFC3339)
		next := h.Status.Load().(DiscoverStatus)
		next.Running = false
		next.State = string(discover.StateDone)
		next.Detail = ""
		next.LastRunAt = now
		next.LastResult = &res
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.Status.Store(next)

		h.Hub.Publish(events.MakeEvent("", events.TypeRunFinished, 1, res))
	}()

	writeJSON(w, map[string]any{"ok": true})
}

func (h DiscoverHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.Status.Load().(DiscoverStatus)
	writeJSON(w, st)
}

// PostResume releases a run parked on a login or verification challenge.
func (h DiscoverHandler) PostResume(w http.ResponseWriter, r *http.Request) {
	resumed := h.Resume()
	if !resumed {
		writeJSON(w, map[string]any{"ok": false, "msg": "nothing waiting"})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// OnStateChange returns the Runner.OnState callback that mirrors run state
// into the status atomic and onto the event stream.
func OnStateChange(status *atomic.Value, hub *events.Hub) func(discover.State, string) {
	return func(s discover.State, detail string) {
		st := status.Load().(DiscoverStatus)
		st.State = string(s)
		st.Detail = detail
		status.Store(st)

		hub.Publish(events.MakeEvent("", events.TypeRunStateChanged, 1, map[string]string{
			"state":  string(s),
			"detail": detail,
		}))
	}
}
