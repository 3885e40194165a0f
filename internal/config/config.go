// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// SQLLabConfig holds the execution-dispatch settings.
type SQLLabConfig struct {
	// Timeout bounds synchronous query execution. Queries exceeding it are
	// canceled and recorded as TIMED_OUT.
	Timeout time.Duration
	// MaxDisplayRows caps the rows returned to a client regardless of how
	// many the query produced.
	MaxDisplayRows int
	// BackendPersistence stores synchronous results in the results backend
	// so they can be re-fetched through the same path as async ones.
	BackendPersistence bool
	// ResultsTTL is how long stored result sets stay retrievable.
	ResultsTTL time.Duration
	// CTASNoLimit disables the display row cap for CTAS statements.
	CTASNoLimit bool
}

// QueueConfig holds the async worker pool settings.
type QueueConfig struct {
	Workers int // concurrent query workers (default 4)
	Depth   int // pending task buffer (default 64)
}

// Config holds the immutable configuration for the HTTP API and the
// execution core. Loaded once at startup and passed into constructors.
type Config struct {
	MetaDBPath string // path to the SQLite metadata file
	ListenAddr string // HTTP listen address (default ":8088")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // "development" (default) or "production"
	JWTSecret  string // HS256 shared secret for bearer auth

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	SQLLab SQLLabConfig
	Queue  QueueConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything unset.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath: os.Getenv("META_DB_PATH"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		SQLLab: SQLLabConfig{
			BackendPersistence: parseBoolEnvDefault("SQLLAB_BACKEND_PERSISTENCE", true),
			CTASNoLimit:        parseBoolEnvDefault("SQLLAB_CTAS_NO_LIMIT", false),
		},
	}

	if v := os.Getenv("SQLLAB_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("SQLLAB_TIMEOUT must be a positive number of seconds, got %q", v)
		}
		cfg.SQLLab.Timeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("DISPLAY_MAX_ROW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DISPLAY_MAX_ROW must be a positive integer, got %q", v)
		}
		cfg.SQLLab.MaxDisplayRows = n
	}
	if v := os.Getenv("RESULTS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("RESULTS_TTL must be a positive duration, got %q", v)
		}
		cfg.SQLLab.ResultsTTL = d
	}

	// Queue sizing
	if v := os.Getenv("QUEUE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Queue.Workers = n
		}
	}
	if v := os.Getenv("QUEUE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Queue.Depth = n
		}
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "sqldesk_meta.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8088"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SQLLab.Timeout == 0 {
		cfg.SQLLab.Timeout = 30 * time.Second
	}
	if cfg.SQLLab.MaxDisplayRows == 0 {
		cfg.SQLLab.MaxDisplayRows = 1000
	}
	if cfg.SQLLab.ResultsTTL == 0 {
		cfg.SQLLab.ResultsTTL = 24 * time.Hour
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.Depth == 0 {
		cfg.Queue.Depth = 64
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set; bearer auth disabled, only the X-Principal dev header is accepted")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
