// internal/api/auth.go
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// authAction is the closed set of operations the auth proxy forwards to the
// identity provider. Unknown actions are rejected, not forwarded.
type authAction string

const (
	actionSignUp  authAction = "signup"
	actionSignIn  authAction = "signin"
	actionRefresh authAction = "refresh"
	actionSignOut authAction = "signout"
)

type authRequest struct {
	Action       string `json:"action"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// HandleAuth relays auth operations to the identity provider's REST API.
// The provider's status code and body pass through unchanged; this service
// adds only the API key header. Credentials are never logged.
func (h *Handler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	switch authAction(req.Action) {
	case actionSignUp:
		h.proxyAuth(w, r, "/auth/v1/signup", map[string]string{
			"email":    req.Email,
			"password": req.Password,
		})
	case actionSignIn:
		h.proxyAuth(w, r, "/auth/v1/token?grant_type=password", map[string]string{
			"email":    req.Email,
			"password": req.Password,
		})
	case actionRefresh:
		h.proxyAuth(w, r, "/auth/v1/token?grant_type=refresh_token", map[string]string{
			"refresh_token": req.RefreshToken,
		})
	case actionSignOut:
		h.proxyAuth(w, r, "/auth/v1/logout", nil)
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "unknown action")
	}
}

func (h *Handler) proxyAuth(w http.ResponseWriter, r *http.Request, path string, body map[string]string) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "auth_proxy_failed", "failed to encode upstream request")
			return
		}
		payload = bytes.NewReader(raw)
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.Auth.BaseURL+path, payload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "auth_proxy_failed", "failed to build upstream request")
		return
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("apikey", h.cfg.Auth.AnonKey)
	if auth := r.Header.Get("Authorization"); auth != "" {
		upstream.Header.Set("Authorization", auth)
	}

	resp, err := h.authClient.Do(upstream)
	if err != nil {
		h.logger.Errorw("auth provider request failed", "path", path, "error", err)
		respondError(w, http.StatusBadGateway, "auth_proxy_failed", "identity provider unreachable")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Errorw("failed to relay auth response", "path", path, "error", err)
	}
}
