// Package config loads application configuration from a YAML file with
// PP_* environment-variable overrides. Every service binary shares the same
// Config and reads only the sections it needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Practice   PracticeConfig   `yaml:"practice"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Auth       AuthConfig       `yaml:"auth"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	RPC        RPCConfig        `yaml:"rpc"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AttemptEvents string `yaml:"attemptEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PracticeConfig bounds assessment input and controls optional stages.
type PracticeConfig struct {
	MaxInputRunes    int           `yaml:"maxInputRunes"`
	MaxWords         int           `yaml:"maxWords"`
	StripPunctuation bool          `yaml:"stripPunctuation"`
	CacheResults     bool          `yaml:"cacheResults"`
	HistoryTimeout   time.Duration `yaml:"historyTimeout"`
}

// DictionaryConfig controls lookups, suggestions and bulk import.
type DictionaryConfig struct {
	SuggestLimit    int    `yaml:"suggestLimit"`
	MaxSuggestLimit int    `yaml:"maxSuggestLimit"`
	ImportBatchSize int    `yaml:"importBatchSize"`
	SuggestKey      string `yaml:"suggestKey"`
}

// AuthConfig controls API key validation and per-key rate limiting.
type AuthConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RateLimit      float64       `yaml:"rateLimit"`
	RateBurst      int           `yaml:"rateBurst"`
	KeyCacheTTL    time.Duration `yaml:"keyCacheTTL"`
	LimiterIdleTTL time.Duration `yaml:"limiterIdleTTL"`
	// AdminToken guards the key management endpoints; empty disables them.
	AdminToken string `yaml:"adminToken"`
}

// AnalyticsConfig controls event batching and snapshot persistence.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	BufferSize       int           `yaml:"bufferSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	// SnapshotRetention is how long saved snapshots are kept; 0 keeps all.
	SnapshotRetention time.Duration `yaml:"snapshotRetention"`
	TopN              int           `yaml:"topN"`
	// UpstreamURL is where the practice server proxies /api/v1/analytics.
	UpstreamURL string `yaml:"upstreamURL"`
}

// RPCConfig controls the internal newline-delimited JSON engine server.
type RPCConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make a service misbehave at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	case c.Practice.MaxInputRunes <= 0:
		return fmt.Errorf("config: practice.maxInputRunes must be positive")
	case c.Practice.MaxWords <= 0:
		return fmt.Errorf("config: practice.maxWords must be positive")
	case c.Dictionary.SuggestLimit <= 0 || c.Dictionary.SuggestLimit > c.Dictionary.MaxSuggestLimit:
		return fmt.Errorf("config: dictionary.suggestLimit must be in 1..%d", c.Dictionary.MaxSuggestLimit)
	case c.Dictionary.ImportBatchSize <= 0:
		return fmt.Errorf("config: dictionary.importBatchSize must be positive")
	case c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1:
		return fmt.Errorf("config: tracing.sampleRate must be in [0,1]")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "pronunciation",
			User:            "pronunciation",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "pronunciation-analytics",
			Topics: KafkaTopics{
				AttemptEvents: "practice.attempts",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Practice: PracticeConfig{
			MaxInputRunes:  2000,
			MaxWords:       300,
			CacheResults:   true,
			HistoryTimeout: 2 * time.Second,
		},
		Dictionary: DictionaryConfig{
			SuggestLimit:    10,
			MaxSuggestLimit: 100,
			ImportBatchSize: 1000,
			SuggestKey:      "dictionary:words",
		},
		Auth: AuthConfig{
			Enabled:        true,
			RateLimit:      10,
			RateBurst:      20,
			KeyCacheTTL:    5 * time.Minute,
			LimiterIdleTTL: 10 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Port:              8083,
			BufferSize:        10000,
			FlushInterval:     time.Second,
			SnapshotInterval:  time.Minute,
			SnapshotRetention: 30 * 24 * time.Hour,
			TopN:              10,
			UpstreamURL:       "http://localhost:8083",
		},
		RPC: RPCConfig{
			Addr:    ":9091",
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PP_* environment variables and overrides the
// corresponding config fields. Malformed numbers and booleans are ignored.
func applyEnvOverrides(cfg *Config) {
	envInt("PP_SERVER_PORT", &cfg.Server.Port)
	envString("PP_POSTGRES_HOST", &cfg.Postgres.Host)
	envInt("PP_POSTGRES_PORT", &cfg.Postgres.Port)
	envString("PP_POSTGRES_DATABASE", &cfg.Postgres.Database)
	envString("PP_POSTGRES_USER", &cfg.Postgres.User)
	envString("PP_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envString("PP_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	if v := os.Getenv("PP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	envString("PP_KAFKA_TOPIC_ATTEMPTS", &cfg.Kafka.Topics.AttemptEvents)
	envString("PP_REDIS_ADDR", &cfg.Redis.Addr)
	envString("PP_REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("PP_PRACTICE_MAX_INPUT_RUNES", &cfg.Practice.MaxInputRunes)
	envInt("PP_PRACTICE_MAX_WORDS", &cfg.Practice.MaxWords)
	envBool("PP_PRACTICE_STRIP_PUNCTUATION", &cfg.Practice.StripPunctuation)
	envBool("PP_PRACTICE_CACHE_RESULTS", &cfg.Practice.CacheResults)
	envInt("PP_DICTIONARY_SUGGEST_LIMIT", &cfg.Dictionary.SuggestLimit)
	envBool("PP_AUTH_ENABLED", &cfg.Auth.Enabled)
	envString("PP_AUTH_ADMIN_TOKEN", &cfg.Auth.AdminToken)
	envInt("PP_ANALYTICS_PORT", &cfg.Analytics.Port)
	envString("PP_ANALYTICS_UPSTREAM_URL", &cfg.Analytics.UpstreamURL)
	envDuration("PP_ANALYTICS_SNAPSHOT_RETENTION", &cfg.Analytics.SnapshotRetention)
	envBool("PP_RPC_ENABLED", &cfg.RPC.Enabled)
	envString("PP_RPC_ADDR", &cfg.RPC.Addr)
	envString("PP_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("PP_LOGGING_FORMAT", &cfg.Logging.Format)
	envBool("PP_TRACING_ENABLED", &cfg.Tracing.Enabled)
	envBool("PP_METRICS_ENABLED", &cfg.Metrics.Enabled)
	envInt("PP_METRICS_PORT", &cfg.Metrics.Port)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
