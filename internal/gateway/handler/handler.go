// Package handler implements the operator endpoints of the public API:
// API key management and the analytics pass-through.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
)

// KeyManager creates, lists and revokes API keys. *apikey.Validator
// satisfies it.
type KeyManager interface {
	CreateKey(ctx context.Context, name string, rateLimit int, expiresAt *time.Time) (string, *apikey.KeyInfo, error)
	ListKeys(ctx context.Context) ([]apikey.KeyInfo, error)
	RevokeByID(ctx context.Context, id string) error
}

type Handler struct {
	keys           KeyManager
	analyticsProxy *httputil.ReverseProxy
	onRevoke       []func(id string)
	logger         *slog.Logger
}

// New creates a Handler. keys may be nil when PostgreSQL is not wired; an
// empty analyticsURL disables the analytics pass-through.
func New(keys KeyManager, analyticsURL string) (*Handler, error) {
	h := &Handler{
		keys:   keys,
		logger: slog.Default().With("component", "gateway-handler"),
	}
	if analyticsURL != "" {
		u, err := url.Parse(analyticsURL)
		if err != nil {
			return nil, apperrors.Invalid("analytics upstream %q: %v", analyticsURL, err)
		}
		h.analyticsProxy = httputil.NewSingleHostReverseProxy(u)
		h.analyticsProxy.ErrorHandler = h.proxyError
	}
	return h, nil
}

// ProxyAnalytics forwards GET /api/v1/analytics to the analytics service.
func (h *Handler) ProxyAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.analyticsProxy == nil {
		h.writeError(w, http.StatusServiceUnavailable, "analytics is not configured")
		return
	}
	h.analyticsProxy.ServeHTTP(w, r)
}

func (h *Handler) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("analytics upstream failed", "error", err)
	h.writeError(w, http.StatusBadGateway, "analytics service unavailable")
}

// CreateAPIKey serves POST /api/v1/admin/keys. The raw key is returned once.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	if !h.keysEnabled(w) {
		return
	}
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
		ExpiresIn string `json:"expires_in,omitempty"` // Go duration, e.g. "720h"
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid expires_in duration")
			return
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	raw, info, err := h.keys.CreateKey(r.Context(), req.Name, req.RateLimit, expiresAt)
	if err != nil {
		h.fail(w, r, "creating api key failed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"api_key": raw,
		"key":     info,
		"message": "store this key securely, it cannot be retrieved again",
	})
}

// ListAPIKeys serves GET /api/v1/admin/keys.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	if !h.keysEnabled(w) {
		return
	}
	keys, err := h.keys.ListKeys(r.Context())
	if err != nil {
		h.fail(w, r, "listing api keys failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}

// RevokeAPIKey serves DELETE /api/v1/admin/keys/{id}.
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	if !h.keysEnabled(w) {
		return
	}
	id := r.PathValue("id")
	if err := h.keys.RevokeByID(r.Context(), id); err != nil {
		h.fail(w, r, "revoking api key failed", err)
		return
	}
	for _, fn := range h.onRevoke {
		fn(id)
	}
	logger.FromContext(r.Context()).Info("api key revoked", "key_id", id)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "revoked", "id": id})
}

// OnRevoke registers fn to run after a key is revoked.
func (h *Handler) OnRevoke(fn func(id string)) {
	h.onRevoke = append(h.onRevoke, fn)
}

func (h *Handler) keysEnabled(w http.ResponseWriter) bool {
	if h.keys == nil {
		h.writeError(w, http.StatusServiceUnavailable, "key management is disabled")
		return false
	}
	return true
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
