// Package router mounts every public route of the practice server and
// applies the middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/dictionary"
	gwhandler "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/handler"
	gwmw "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/middleware"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/history"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/practice"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/middleware"
)

// Deps are the route handlers and cross-cutting services. Nil handlers
// leave their routes unmounted; a nil Validator turns authentication off
// and a nil Limiter turns rate limiting off.
type Deps struct {
	Practice   *practice.Handler
	History    *history.Handler
	Dictionary *dictionary.Handler
	Gateway    *gwhandler.Handler
	Health     *health.Checker
	Metrics    *metrics.Metrics

	Validator      gwmw.KeyValidator
	Limiter        *ratelimit.Limiter
	AdminToken     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// publicPaths skip authentication and rate limiting.
var publicPaths = []string{"/health", "/api/v1/admin/"}

// New builds the server handler.
//
// Route table:
//
//	POST   /api/v1/assess               → practice assessment
//	POST   /api/v1/score                → similarity score
//	POST   /api/v1/align                → word alignment
//	GET    /api/v1/cache/stats          → assessment cache counters
//	POST   /api/v1/cache/invalidate     → drop cached assessments
//	GET    /api/v1/history              → learner attempts
//	GET    /api/v1/history/stats        → learner statistics
//	DELETE /api/v1/history              → clear learner history
//	GET    /api/v1/dictionary/{word}    → dictionary lookup
//	GET    /api/v1/suggest              → prefix suggestions
//	GET    /api/v1/analytics            → analytics service (proxy)
//	POST   /api/v1/admin/keys           → create API key   (admin token)
//	GET    /api/v1/admin/keys           → list API keys    (admin token)
//	DELETE /api/v1/admin/keys/{id}      → revoke API key   (admin token)
//	GET    /health/live, /health/ready  → probes
//
// Middleware chain (outermost first):
//
//	RequestID → Logging → Metrics → CORS → Auth → RateLimit → Timeout → mux
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	if d.Health != nil {
		mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())
	}

	if p := d.Practice; p != nil {
		mux.HandleFunc("POST /api/v1/assess", p.Assess)
		mux.HandleFunc("POST /api/v1/score", p.Score)
		mux.HandleFunc("POST /api/v1/align", p.Align)
		mux.HandleFunc("GET /api/v1/cache/stats", p.CacheStats)
		mux.HandleFunc("POST /api/v1/cache/invalidate", p.CacheInvalidate)
	}

	if h := d.History; h != nil {
		mux.HandleFunc("GET /api/v1/history", h.List)
		mux.HandleFunc("GET /api/v1/history/stats", h.Stats)
		mux.HandleFunc("DELETE /api/v1/history", h.Clear)
	}

	if dict := d.Dictionary; dict != nil {
		mux.HandleFunc("GET /api/v1/dictionary/{word}", dict.Lookup)
		mux.HandleFunc("GET /api/v1/suggest", dict.Suggest)
	}

	if g := d.Gateway; g != nil {
		mux.HandleFunc("GET /api/v1/analytics", g.ProxyAnalytics)

		admin := gwmw.AdminToken(d.AdminToken)
		mux.Handle("POST /api/v1/admin/keys", admin(http.HandlerFunc(g.CreateAPIKey)))
		mux.Handle("GET /api/v1/admin/keys", admin(http.HandlerFunc(g.ListAPIKeys)))
		mux.Handle("DELETE /api/v1/admin/keys/{id}", admin(http.HandlerFunc(g.RevokeAPIKey)))
	}

	mws := []func(http.Handler) http.Handler{pkgmw.RequestID, pkgmw.Logging}
	if d.Metrics != nil {
		mws = append(mws, pkgmw.Metrics(d.Metrics))
	}
	mws = append(mws, gwmw.CORS(gwmw.DefaultCORSConfig(d.AllowedOrigins...)))
	if d.Validator != nil {
		mws = append(mws, gwmw.Auth(d.Validator, publicPaths...))
	}
	if d.Limiter != nil {
		mws = append(mws, gwmw.RateLimit(d.Limiter, publicPaths...))
	}
	if d.RequestTimeout > 0 {
		mws = append(mws, pkgmw.Timeout(d.RequestTimeout))
	}
	return pkgmw.Chain(mux, mws...)
}
