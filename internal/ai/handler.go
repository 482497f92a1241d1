package ai

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

type generateRequest struct {
	Word     string `json:"word"`
	Provider string `json:"provider"`
}

func (h *Handler) GenerateWordInfo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body generateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Word = strings.TrimSpace(body.Word)
	body.Provider = strings.TrimSpace(body.Provider)

	info, err := h.service.GenerateWordInfo(r.Context(), body.Word, body.Provider)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidWord):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoProvider):
			writeError(w, http.StatusServiceUnavailable, "no AI provider configured")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusBadGateway, "failed to generate word info")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    info,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
