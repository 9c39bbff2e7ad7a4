package httpapi

import "autopilot-engine/internal/discover"

type DiscoverStatus struct {
	State      string              `json:"state"`
	Detail     string              `json:"detail,omitempty"`
	Running    bool                `json:"running"`
	LastRunAt  string              `json:"last_run_at"`
	LastOkAt   string              `json:"last_ok_at"`
	LastError  string              `json:"last_error"`
	LastResult *discover.RunResult `json:"last_result,omitempty"`
}
