// Command analytics consumes practice attempt events from Kafka,
// aggregates them in memory, snapshots the aggregate to PostgreSQL, and
// serves GET /api/v1/analytics for dashboards.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()
	agg := analytics.NewAggregator(cfg.Analytics.TopN)
	checker := health.NewChecker()
	checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
		return kafka.PingBrokers(ctx, cfg.Kafka.Brokers)
	}, true))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return agg.Consume(gctx, cfg.Kafka, cfg.Kafka.Topics.AttemptEvents)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(agg).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	if db, err := postgres.New(cfg.Postgres); err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		checker.Register("postgres", health.PingCheck(db.Ping, false))
		store := aggregator.NewStore(db)
		g.Go(func() error {
			return store.Run(gctx, agg, cfg.Analytics.SnapshotInterval, cfg.Analytics.SnapshotRetention)
		})
		mux.HandleFunc("GET /api/v1/analytics/snapshots", aggregator.SnapshotHandler(store))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.Logging, middleware.Metrics(m)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, fmt.Sprintf(":%d", cfg.Metrics.Port+1), cfg.Server.ShutdownTimeout)
		})
	}
	return g.Wait()
}
