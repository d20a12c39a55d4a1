package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/metrics"
)

// Lookuper resolves a headword. *Store satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, word string) (*Entry, error)
}

// Completer returns prefix suggestions. *Suggester satisfies it.
type Completer interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

type Handler struct {
	words   Lookuper
	suggest Completer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandler creates a Handler. suggest and m may be nil.
func NewHandler(words Lookuper, suggest Completer, m *metrics.Metrics) *Handler {
	return &Handler{
		words:   words,
		suggest: suggest,
		metrics: m,
		logger:  slog.Default().With("component", "dictionary-handler"),
	}
}

// Lookup serves GET /api/v1/dictionary/{word}.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	e, err := h.words.Lookup(r.Context(), word)
	switch {
	case errors.Is(err, apperrors.ErrWordNotFound):
		h.observe("miss")
		h.writeError(w, http.StatusNotFound, "word not found")
		return
	case err != nil:
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			h.observe("error")
		}
		h.fail(w, r, "dictionary lookup failed", err)
		return
	}
	h.observe("hit")
	h.writeJSON(w, http.StatusOK, e)
}

// Suggest serves GET /api/v1/suggest?prefix=&limit=.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.suggest == nil {
		h.writeError(w, http.StatusServiceUnavailable, "suggestions are disabled")
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	prefix := q.Get("prefix")
	words, err := h.suggest.Suggest(r.Context(), prefix, limit)
	if err != nil {
		h.fail(w, r, "suggest failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"prefix":      NormalizeWord(prefix),
		"suggestions": words,
	})
}

func (h *Handler) observe(result string) {
	if h.metrics != nil {
		h.metrics.DictionaryLookups.WithLabelValues(result).Inc()
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
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
