package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
)

// NewTestClient connects to the database named by PP_TEST_POSTGRES_* and
// runs Migrate. The test is skipped when PP_TEST_POSTGRES_HOST is unset or
// the database is unreachable.
func NewTestClient(t testing.TB) *Client {
	t.Helper()
	host := os.Getenv("PP_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("PP_TEST_POSTGRES_HOST not set")
	}
	cfg := config.PostgresConfig{
		Host:         host,
		Port:         5432,
		Database:     envOr("PP_TEST_POSTGRES_DATABASE", "pronunciation_test"),
		User:         envOr("PP_TEST_POSTGRES_USER", "pronunciation"),
		Password:     envOr("PP_TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
	}
	if v := os.Getenv("PP_TEST_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}

	client, err := New(cfg)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := client.Migrate(context.Background()); err != nil {
		client.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
