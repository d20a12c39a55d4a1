// Package health serves liveness and readiness probes. Each backend the
// practice server talks to registers a Check. Critical backends take the
// instance out of rotation when they fail; optional ones (the result
// cache, the event stream) only mark it degraded.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
)

// Status is the health of one component or of the whole instance.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// severity orders statuses so the report carries the worst one.
func (s Status) severity() int {
	switch s {
	case StatusDown:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// Check probes one backend.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth is the result of one Check.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the readiness response body.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Uptime     string                     `json:"uptime"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker holds the registered checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	started time.Time
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker creates a Checker whose probes each get 3 seconds.
func NewChecker() *Checker {
	return &Checker{
		checks:  make(map[string]Check),
		started: time.Now(),
		timeout: 3 * time.Second,
		logger:  slog.Default().With("component", "health"),
	}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

// Run probes every backend in parallel.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make([]Check, 0, len(c.checks))
	for name, check := range c.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	results := make([]ComponentHealth, len(checks))
	var g errgroup.Group
	for i := range checks {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			results[i] = checks[i](probeCtx)
			results[i].Latency = time.Since(start).Round(time.Microsecond).String()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(names)),
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i, name := range names {
		report.Components[name] = results[i]
		if results[i].Status.severity() > report.Status.severity() {
			report.Status = results[i].Status
		}
	}
	return report
}

// PingCheck turns a ping into a Check. A failing optional backend
// (critical == false) reports degraded instead of down.
func PingCheck(ping func(ctx context.Context) error, critical bool) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: failed(critical), Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// BreakerSource exposes a circuit breaker's state.
type BreakerSource interface {
	Snapshot() resilience.Snapshot
}

// BreakerCheck reports a backend as failing while its breaker is open, so
// the probe reflects what callers actually experience.
func BreakerCheck(b BreakerSource, critical bool) Check {
	return func(context.Context) ComponentHealth {
		snap := b.Snapshot()
		switch snap.State {
		case resilience.StateOpen:
			return ComponentHealth{
				Status:  failed(critical),
				Message: fmt.Sprintf("circuit %s open since %s", snap.Name, snap.OpenedAt.UTC().Format(time.RFC3339)),
			}
		case resilience.StateHalfOpen:
			return ComponentHealth{Status: StatusDegraded, Message: fmt.Sprintf("circuit %s probing", snap.Name)}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

func failed(critical bool) Status {
	if critical {
		return StatusDown
	}
	return StatusDegraded
}

// LiveHandler always answers 200 while the process can serve HTTP.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 200 while no critical backend is down and 503
// otherwise. A degraded instance stays in rotation.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
			c.logger.Warn("readiness check failed", "components", report.Components)
		}
		c.write(w, status, report)
	}
}

func (c *Checker) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to write health response", "error", err)
	}
}
