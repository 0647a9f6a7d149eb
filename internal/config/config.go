package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/templui/pacekeeper/internal/period"
)

const defaultReportingOffset = "+07:00"

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret      string
	WriteRateLimit int // requests per minute per user on write endpoints
	WriteRateBurst int

	// Reporting
	ReportingOffset    string
	ReportingLocation  *time.Location
	StreakLookbackDays int
	RecentRunsLimit    int

	// HTTP server
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool
}

// Load reads the environment (and .env if present) and exits the process when a
// required value is missing.
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	var missing []error
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, fmt.Errorf("required env var %s is missing", key))
		}
		return v
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Pacekeeper"),
		AppEnv:  required("APP_ENV"), // 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/pacekeeper.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:      required("JWT_SECRET"),
		WriteRateLimit: envInt("WRITE_RATE_LIMIT", 60),
		WriteRateBurst: envInt("WRITE_RATE_BURST", 10),

		// Reporting
		ReportingOffset:    envString("REPORTING_UTC_OFFSET", defaultReportingOffset),
		StreakLookbackDays: envInt("STREAK_LOOKBACK_DAYS", 366),
		RecentRunsLimit:    envInt("RECENT_RUNS_LIMIT", 50),

		// HTTP server
		ReadTimeout:     envDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	loc, err := period.ParseOffset(cfg.ReportingOffset)
	if err != nil {
		slog.Warn("config invalid utc offset, using default", "key", "REPORTING_UTC_OFFSET", "value", cfg.ReportingOffset, "default", defaultReportingOffset)
		cfg.ReportingOffset = defaultReportingOffset
		loc, _ = period.ParseOffset(defaultReportingOffset)
	}
	cfg.ReportingLocation = loc

	if cfg.StreakLookbackDays < 1 {
		slog.Warn("config invalid streak lookback, using default", "value", cfg.StreakLookbackDays, "default", 366)
		cfg.StreakLookbackDays = 366
	}
	if cfg.RecentRunsLimit < 1 {
		slog.Warn("config invalid recent runs limit, using default", "value", cfg.RecentRunsLimit, "default", 50)
		cfg.RecentRunsLimit = 50
	}

	if cfg.IsProduction() {
		err := validateProduction(cfg)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// validateProduction rejects settings that are only acceptable on a laptop.
func validateProduction(cfg *Config) error {
	if len(cfg.JWTSecret) < 32 {
		return errors.New("production deployment requires JWT_SECRET of at least 32 bytes")
	}
	return nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
