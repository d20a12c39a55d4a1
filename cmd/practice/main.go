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

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/dictionary"
	gwhandler "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/handler"
	gwmw "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/middleware"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/history"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/practice"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/rpc"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/tracing"
)

// practice serves the public pronunciation API and, when enabled, the
// internal engine RPC endpoint. PostgreSQL, Redis and Kafka are optional:
// without them the matching features are switched off and assessments
// still work.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting practice service", "port", cfg.Server.Port, "auth", cfg.Auth.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("practice service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("practice service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()
	breakerStates := func(name string, s resilience.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(s))
	}
	tracer := tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate, slog.Default())
	checker := health.NewChecker()
	deps := practice.Deps{Metrics: m, Tracer: tracer}

	var db *postgres.Client
	if client, err := postgres.New(cfg.Postgres); err != nil {
		if cfg.Auth.Enabled {
			return fmt.Errorf("api keys need postgres: %w", err)
		}
		slog.Warn("postgres unavailable, history and dictionary disabled", "error", err)
	} else {
		db = client
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		checker.Register("postgres", health.PingCheck(db.Ping, true))
		deps.History = history.NewStore(db)
	}

	var rdb *pkgredis.Client
	if client, err := pkgredis.NewClient(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, caching and suggestions disabled", "error", err)
	} else {
		rdb = client
		defer rdb.Close()
		checker.Register("redis", health.PingCheck(rdb.Ping, false))
		if cfg.Practice.CacheResults {
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{OnStateChange: breakerStates})
			checker.Register("redis-cache-breaker", health.BreakerCheck(breaker, false))
			deps.Cache = practice.NewResultCache(rdb, cfg.Redis.CacheTTL, breaker)
			slog.Info("assessment cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AttemptEvents)
	defer producer.Close()
	checker.Register("kafka", health.PingCheck(producer.Ping, false))
	eventsBreaker := resilience.NewCircuitBreaker("kafka-events", resilience.CircuitBreakerConfig{OnStateChange: breakerStates})
	checker.Register("kafka-events-breaker", health.BreakerCheck(eventsBreaker, false))
	events := collector.New(producer, collector.Config{
		BufferSize:    cfg.Analytics.BufferSize,
		FlushInterval: cfg.Analytics.FlushInterval,
		OnDrop:        m.EventsDroppedTotal.Inc,
		Breaker:       eventsBreaker,
	})
	events.Start(ctx)
	defer events.Close()
	deps.Events = events
	slog.Info("attempt events enabled", "topic", cfg.Kafka.Topics.AttemptEvents)

	svc := practice.NewService(cfg.Practice, deps)

	g, gctx := errgroup.WithContext(ctx)

	routes := router.Deps{
		Practice:       practice.NewHandler(svc),
		Health:         checker,
		Metrics:        m,
		AdminToken:     cfg.Auth.AdminToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}

	var keys *apikey.Validator
	if db != nil {
		keys = apikey.NewValidator(db)
		routes.History = history.NewHandler(history.NewStore(db))

		var suggester dictionary.Completer
		if rdb != nil {
			suggester = dictionary.NewSuggester(rdb, cfg.Dictionary.SuggestKey, cfg.Dictionary.SuggestLimit, cfg.Dictionary.MaxSuggestLimit)
		}
		routes.Dictionary = dictionary.NewHandler(dictionary.NewStore(db), suggester, m)
	}

	var gwKeys gwhandler.KeyManager
	if keys != nil {
		gwKeys = keys
	}
	gw, err := gwhandler.New(gwKeys, cfg.Analytics.UpstreamURL)
	if err != nil {
		return err
	}
	routes.Gateway = gw

	if cfg.Auth.Enabled {
		cached := apikey.NewCachingValidator(keys, cfg.Auth.KeyCacheTTL)
		g.Go(func() error { cached.Run(gctx); return nil })
		gw.OnRevoke(cached.ForgetID)
		routes.Validator = gwmw.KeyValidator(cached)
	}
	limiter := ratelimit.New(ratelimit.Config{
		Rate:    cfg.Auth.RateLimit,
		Burst:   cfg.Auth.RateBurst,
		IdleTTL: cfg.Auth.LimiterIdleTTL,
	})
	g.Go(func() error { limiter.Run(gctx); return nil })
	routes.Limiter = limiter

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(routes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("practice service listening", "addr", server.Addr)
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

	if cfg.RPC.Enabled {
		rpcServer := rpc.NewServer(cfg.RPC.Timeout)
		practice.RegisterRPC(rpcServer, svc)
		g.Go(func() error { return rpcServer.Serve(cfg.RPC.Addr) })
		g.Go(func() error {
			<-gctx.Done()
			rpcServer.Stop()
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Server.ShutdownTimeout)
		})
	}

	return g.Wait()
}
