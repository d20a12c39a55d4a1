package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
)

// Repository is the read side of Store used by Handler.
type Repository interface {
	List(ctx context.Context, learnerID string, limit int) ([]Attempt, error)
	Stats(ctx context.Context, learnerID string) (Stats, error)
	Clear(ctx context.Context, learnerID string) (int64, error)
}

type Handler struct {
	repo   Repository
	logger *slog.Logger
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:   repo,
		logger: slog.Default().With("component", "history-handler"),
	}
}

// List serves GET /api/v1/history?limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	learner, ok := h.learner(w, r)
	if !ok {
		return
	}
	limit := DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	attempts, err := h.repo.List(r.Context(), learner, limit)
	if err != nil {
		h.fail(w, r, "listing history failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"count":    len(attempts),
	})
}

// Stats serves GET /api/v1/history/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	learner, ok := h.learner(w, r)
	if !ok {
		return
	}
	st, err := h.repo.Stats(r.Context(), learner)
	if err != nil {
		h.fail(w, r, "history stats failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

// Clear serves DELETE /api/v1/history.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	learner, ok := h.learner(w, r)
	if !ok {
		return
	}
	n, err := h.repo.Clear(r.Context(), learner)
	if err != nil {
		h.fail(w, r, "clearing history failed", err)
		return
	}
	logger.FromContext(r.Context()).Info("history cleared", "learner_id", learner, "deleted", n)
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *Handler) learner(w http.ResponseWriter, r *http.Request) (string, bool) {
	learner := apikey.RequestLearner(r)
	if learner == "" {
		h.writeError(w, http.StatusUnauthorized, "learner identity required")
		return "", false
	}
	return learner, true
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
