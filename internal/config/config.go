// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Database backends.
const (
	DatabaseFirestore = "firestore"
	DatabaseLocal     = "local"
)

// Config holds the configuration for the HTTP API, the Google clients and
// the record store.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Record store
	DatabaseType      string // "firestore" or "local" (default "local")
	FirestoreProject  string // project hosting the Firestore database
	FirestoreDatabase string // named database, empty for "(default)"
	LocalDBPath       string // JSON file path for the local store (default "compliance_db.json")
	Collection        string // document collection name (default "compliance_data")

	// Asset collection
	AssetTypesFile string // optional YAML file overriding the default asset-type filter
	CollectCron    string // cron expression for scheduled collection (empty disables)
	CollectScope   string // scope for scheduled collection, e.g. "folders/123"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// JWTSecret enables HS256 bearer auth on mutating endpoints when set.
	JWTSecret string

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

// UseFirestore returns true when records are persisted to Firestore.
func (c *Config) UseFirestore() bool {
	return c.DatabaseType == DatabaseFirestore
}

// LoadFromEnv loads configuration from environment variables.
// Google credentials come from Application Default Credentials and are not
// handled here.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
		DatabaseType:      strings.ToLower(os.Getenv("DATABASE_TYPE")),
		FirestoreProject:  os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreDatabase: os.Getenv("FIRESTORE_DATABASE"),
		LocalDBPath:       os.Getenv("LOCAL_DB_PATH"),
		Collection:        os.Getenv("COLLECTION_NAME"),
		AssetTypesFile:    os.Getenv("ASSET_TYPES_FILE"),
		CollectCron:       os.Getenv("COLLECT_CRON"),
		CollectScope:      os.Getenv("COLLECT_SCOPE"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
	}

	if v := os.Getenv("PORT"); v != "" && cfg.ListenAddr == "" {
		cfg.ListenAddr = ":" + v
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
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = DatabaseLocal
	}
	if cfg.DatabaseType != DatabaseFirestore && cfg.DatabaseType != DatabaseLocal {
		return nil, fmt.Errorf("DATABASE_TYPE must be %q or %q, got %q", DatabaseFirestore, DatabaseLocal, cfg.DatabaseType)
	}
	if cfg.LocalDBPath == "" {
		cfg.LocalDBPath = "compliance_db.json"
	}
	if cfg.Collection == "" {
		cfg.Collection = "compliance_data"
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
	if cfg.UseFirestore() && cfg.FirestoreProject == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required when DATABASE_TYPE=firestore")
	}
	if cfg.CollectCron != "" && cfg.CollectScope == "" {
		return nil, fmt.Errorf("COLLECT_SCOPE is required when COLLECT_CRON is set")
	}
	if cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set — mutating endpoints are unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.DatabaseType == DatabaseLocal {
			cfg.Warnings = append(cfg.Warnings, "DATABASE_TYPE=local in production — records will not survive instance replacement")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
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
