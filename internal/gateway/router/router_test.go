package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/ratelimit"
	gwhandler "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/handler"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/practice"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/health"
)

type oneKey struct{}

func (oneKey) Validate(_ context.Context, raw string) (*apikey.KeyInfo, error) {
	if raw == "secret" {
		return &apikey.KeyInfo{ID: "k1", RateLimit: 600}, nil
	}
	return nil, apikey.ErrInvalidKey
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	svc := practice.NewService(config.PracticeConfig{MaxInputRunes: 100, MaxWords: 20}, practice.Deps{})
	gw, err := gwhandler.New(nil, "")
	require.NoError(t, err)
	return New(Deps{
		Practice:       practice.NewHandler(svc),
		Gateway:        gw,
		Health:         health.NewChecker(),
		Validator:      oneKey{},
		Limiter:        ratelimit.New(ratelimit.Config{Rate: 10, Burst: 10}),
		AdminToken:     "admin",
		RequestTimeout: time.Second,
	})
}

func TestRouterAuthenticatesAPI(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader(`{"target":"abc","candidate":"abc"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader(`{"target":"abc","candidate":"abc"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":100}`, rec.Body.String())
}

func TestRouterPublicAndAdminPaths(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/keys", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/keys", nil)
	req.Header.Set("X-Admin-Token", "admin")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no key store wired")
}

func TestRouterUnmountedRoutes(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
