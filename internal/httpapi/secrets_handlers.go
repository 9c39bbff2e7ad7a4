package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"autopilot-engine/internal/config"
	"autopilot-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setIdentityPasswordReq struct {
	Index    int    `json:"index"`
	Password string `json:"password"`
}

// SetIdentityPassword stores one LinkedIn identity's password in the OS
// keychain. The identity must already exist in the config.
func (h SecretsHandler) SetIdentityPassword(w http.ResponseWriter, r *http.Request) {
	var req setIdentityPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if req.Index < 0 || req.Index >= len(cfg.LinkedIn.Identities) {
		http.Error(w, "unknown identity index", http.StatusBadRequest)
		return
	}
	email := cfg.LinkedIn.Identities[req.Index].Email

	if err := secrets.Set(secrets.IdentityAccount(req.Index, email), req.Password); err != nil {
		http.Error(w, "failed to store password: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	account := secrets.IMAPAccount(cfg.Email.Username, cfg.Email.IMAPHost)
	if err := secrets.Set(account, req.Password); err != nil {
		http.Error(w, "failed to store password: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
