// Package settings is the JSON API a settings UI talks to: provider keys,
// the passcode, security policy values, and server/TLS options. Every
// route here sits behind the API auth guard.
package settings

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	store *config.Store
}

func NewHandler(store *config.Store) *Handler {
	return &Handler{store: store}
}

// Get returns the configuration with secrets replaced by placeholders,
// plus the provider status summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"config": h.store.Export(false),
		"status": h.store.Status(),
	})
}

type providerRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

// SetProvider stores a provider's API key and/or model. Keys must pass the
// format check before they are worth persisting.
func (h *Handler) SetProvider(w http.ResponseWriter, r *http.Request) {
	var body providerRequest
	if !decodeBody(w, r, &body) {
		return
	}

	body.Provider = strings.TrimSpace(body.Provider)
	body.APIKey = strings.TrimSpace(body.APIKey)
	body.Model = strings.TrimSpace(body.Model)

	if !knownProvider(body.Provider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	if body.APIKey != "" {
		if !config.ValidateKeyFormat(body.Provider, body.APIKey) {
			writeError(w, http.StatusBadRequest, "api key format is invalid")
			return
		}
		if err := h.store.SetAPIKey(body.Provider, body.APIKey); err != nil {
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to save api key")
			return
		}
	}

	if body.Model != "" {
		if err := h.store.SetModel(body.Provider, body.Model); err != nil {
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to save model")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  h.store.Status(),
	})
}

type clearRequest struct {
	Provider string `json:"provider"`
}

func (h *Handler) ClearProvider(w http.ResponseWriter, r *http.Request) {
	var body clearRequest
	if !decodeBody(w, r, &body) {
		return
	}

	body.Provider = strings.TrimSpace(body.Provider)
	if !knownProvider(body.Provider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	if err := h.store.ClearAPIKey(body.Provider); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to clear api key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type passcodeRequest struct {
	Passcode string `json:"passcode"`
}

// SetPasscode changes the application passcode. An empty passcode turns
// authentication off.
func (h *Handler) SetPasscode(w http.ResponseWriter, r *http.Request) {
	var body passcodeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.store.SetPasscode(strings.TrimSpace(body.Passcode)); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to save passcode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"passcode_required": h.store.PasscodeConfigured(),
	})
}

// policyRequest uses pointers so absent fields stay untouched.
type policyRequest struct {
	AutoLogoutEnabled *bool   `json:"auto_logout_enabled"`
	AutoLogoutHours   *int    `json:"auto_logout_hours"`
	MaxFailedAttempts *int    `json:"max_failed_attempts"`
	Timeout           *int    `json:"timeout"`
	MaxRetries        *int    `json:"max_retries"`
	DefaultProvider   *string `json:"default_provider"`
}

// SetPolicy updates security and request policy values. Out-of-range
// numbers are clamped by the store, not rejected.
func (h *Handler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var body policyRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if body.DefaultProvider != nil && !knownProvider(*body.DefaultProvider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	var err error
	if body.AutoLogoutEnabled != nil {
		err = firstErr(err, h.store.SetAutoLogoutEnabled(*body.AutoLogoutEnabled))
	}
	if body.AutoLogoutHours != nil {
		err = firstErr(err, h.store.SetAutoLogoutHours(*body.AutoLogoutHours))
	}
	if body.MaxFailedAttempts != nil {
		err = firstErr(err, h.store.SetMaxFailedAttempts(*body.MaxFailedAttempts))
	}
	if body.Timeout != nil {
		err = firstErr(err, h.store.SetTimeout(*body.Timeout))
	}
	if body.MaxRetries != nil {
		err = firstErr(err, h.store.SetMaxRetries(*body.MaxRetries))
	}
	if body.DefaultProvider != nil {
		err = firstErr(err, h.store.SetDefaultProvider(*body.DefaultProvider))
	}
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config":  h.store.Export(false),
	})
}

// SetServer replaces the server/TLS settings wholesale.
func (h *Handler) SetServer(w http.ResponseWriter, r *http.Request) {
	var body config.ServerSettings
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.store.SetServer(body); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to save server settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"server":  h.store.Server(),
	})
}

func knownProvider(name string) bool {
	for _, known := range config.Providers() {
		if name == known {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	return true
}

func firstErr(current, next error) error {
	if current != nil {
		return current
	}
	return next
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
