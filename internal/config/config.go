package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Vector-Attribution application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Geo       GeoConfig
	Query     QueryConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled    bool
	TrackRPS   float64
	TrackBurst int
	MgmtRPS    float64
	MgmtBurst  int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GeoConfig configures GeoIP enrichment of tracked visits.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

// QueryConfig bounds the analytics read side.
type QueryConfig struct {
	// DefaultRangeDays is applied when a caller omits a date range.
	DefaultRangeDays int
	// Timeout is the hard limit for a single aggregation query.
	Timeout time.Duration
	// CacheTTL is the Redis report cache TTL; 0 disables caching.
	CacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("VECTOR_ATTR_HTTP_ADDR", ":8080"),
			Env:             getEnv("VECTOR_ATTR_ENV", "development"),
			ShutdownTimeout: getDurationEnv("VECTOR_ATTR_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("VECTOR_ATTR_DB_HOST", "localhost"),
			Port:     getIntEnv("VECTOR_ATTR_DB_PORT", 5432),
			User:     getEnv("VECTOR_ATTR_DB_USER", "attribution"),
			Password: getEnv("VECTOR_ATTR_DB_PASSWORD", "attribution_secret"),
			DBName:   getEnv("VECTOR_ATTR_DB_NAME", "attribution"),
			SSLMode:  getEnv("VECTOR_ATTR_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("VECTOR_ATTR_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("VECTOR_ATTR_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("VECTOR_ATTR_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("VECTOR_ATTR_REDIS_PASSWORD", ""),
			DB:       getIntEnv("VECTOR_ATTR_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("VECTOR_ATTR_AUTH_ENABLED", true),
			MasterKey: getEnv("VECTOR_ATTR_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("VECTOR_ATTR_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/track/visit", "/track/conversion"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:    getBoolEnv("VECTOR_ATTR_RATE_LIMIT_ENABLED", true),
			TrackRPS:   getFloatEnv("VECTOR_ATTR_RATE_LIMIT_TRACK_RPS", 1000),
			TrackBurst: getIntEnv("VECTOR_ATTR_RATE_LIMIT_TRACK_BURST", 100),
			MgmtRPS:    getFloatEnv("VECTOR_ATTR_RATE_LIMIT_MGMT_RPS", 100),
			MgmtBurst:  getIntEnv("VECTOR_ATTR_RATE_LIMIT_MGMT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("VECTOR_ATTR_LOG_LEVEL", "info"),
			Format: getEnv("VECTOR_ATTR_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("VECTOR_ATTR_METRICS_ENABLED", true),
			Path:    getEnv("VECTOR_ATTR_METRICS_PATH", "/metrics"),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("VECTOR_ATTR_GEO_ENABLED", false),
			DatabasePath: getEnv("VECTOR_ATTR_GEO_DB_PATH", "/app/data/GeoLite2-City.mmdb"),
		},
		Query: QueryConfig{
			DefaultRangeDays: getIntEnv("VECTOR_ATTR_QUERY_DEFAULT_RANGE_DAYS", 30),
			Timeout:          getDurationEnv("VECTOR_ATTR_QUERY_TIMEOUT", 15*time.Second),
			CacheTTL:         getDurationEnv("VECTOR_ATTR_QUERY_CACHE_TTL", 60*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("VECTOR_ATTR_API_KEY_MASTER is required when auth is enabled")
	}
	if c.Query.DefaultRangeDays <= 0 {
		return fmt.Errorf("VECTOR_ATTR_QUERY_DEFAULT_RANGE_DAYS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
