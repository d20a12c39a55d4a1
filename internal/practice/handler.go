package practice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/middleware"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default().With("component", "practice-handler"),
	}
}

// Assess serves POST /api/v1/assess.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !h.decode(w, r, &req) {
		return
	}
	req.LearnerID = apikey.RequestLearner(r)
	req.RequestID = middleware.GetRequestID(r.Context())

	a, err := h.service.Assess(r.Context(), req)
	if err != nil {
		h.fail(w, r, "assessment failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// Score serves POST /api/v1/score.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var p TextPair
	if !h.decode(w, r, &p) {
		return
	}
	res, err := h.service.Score(r.Context(), p)
	if err != nil {
		h.fail(w, r, "scoring failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Align serves POST /api/v1/align.
func (h *Handler) Align(w http.ResponseWriter, r *http.Request) {
	var p TextPair
	if !h.decode(w, r, &p) {
		return
	}
	res, err := h.service.Align(r.Context(), p)
	if err != nil {
		h.fail(w, r, "alignment failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	c := h.service.deps.Cache
	if c == nil || !h.service.cfg.CacheResults {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := c.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate serves POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	c := h.service.deps.Cache
	if c == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := c.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// decode reads a JSON body into v. Malformed JSON and fields of the wrong
// type are rejected with 400.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  apperrors.ErrInvalidInput.Error(),
			"fields": map[string]string{typeErr.Field: fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type)},
		})
	case errors.As(err, &maxErr):
		h.writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrInputTooLong.Error())
	case errors.Is(err, io.EOF):
		h.writeError(w, http.StatusBadRequest, "request body is required")
	default:
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]any{
			"error":  errors.Unwrap(validationErr).Error(),
			"fields": validationErr.Fields,
		})
		return
	}
	status := apperrors.HTTPStatusCode(err)
	logger.FromContext(r.Context()).Error(msg, "error", err, "status_code", status)
	h.writeError(w, status, apperrors.PublicMessage(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
