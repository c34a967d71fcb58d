// Package config loads application configuration from command-line flags,
// environment variables, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Lists     ListsConfig
	Catalog   CatalogConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state. The SQLite database, Badger directory,
// search index and auth key all live below BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath returns the SQLite file path.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "listkeep.db") }

// KVPath returns the Badger directory.
func (d DataConfig) KVPath() string { return filepath.Join(d.BasePath, "kv") }

// SearchPath returns the directory holding the catalog search index.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	PublicURL    string // Base URL used in share links and invitation mail
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes), set from auth.LoadOrGenerateKey.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
}

// ListsConfig tunes shared list behaviour.
type ListsConfig struct {
	// ViewDedupeWindow suppresses repeat view counts from the same viewer. Zero disables.
	ViewDedupeWindow time.Duration
	DefaultLocale    string
	DefaultSort      string
}

// CatalogConfig configures the entity reference catalog.
type CatalogConfig struct {
	SeedPath  string // Optional JSON file imported at startup
	CacheSize int64  // Max cached entities
}

// NotifyConfig configures invitation delivery. Without an API key
// invitations are only logged.
type NotifyConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// RateLimitConfig holds per-IP limits.
type RateLimitConfig struct {
	AuthPerMinute  int
	ViewsPerMinute int
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load parses args into fs and builds the configuration.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, index and key files")
	port := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL for share links")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	viewDedupe := fs.String("view-dedupe-window", "", "Window for suppressing repeat views (0 disables)")
	catalogSeed := fs.String("catalog-seed", "", "JSON catalog file imported at startup")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; real environment variables always win.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			PublicURL:   strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", "http://localhost:8080"), "/"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "*")),
		},
		Lists: ListsConfig{
			DefaultLocale: getConfigValue("", "LIST_DEFAULT_LOCALE", "en"),
			DefaultSort:   getConfigValue("", "LIST_DEFAULT_SORT", "score"),
		},
		Catalog: CatalogConfig{
			SeedPath:  getConfigValue(*catalogSeed, "CATALOG_SEED_PATH", ""),
			CacheSize: int64(getIntConfigValue("", "CATALOG_CACHE_SIZE", 10000)),
		},
		Notify: NotifyConfig{
			ResendAPIKey: getConfigValue("", "RESEND_API_KEY", ""),
			FromAddress:  getConfigValue("", "NOTIFY_FROM_ADDRESS", "listkeep <noreply@listkeep.local>"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute:  getIntConfigValue("", "RATE_LIMIT_AUTH_PER_MINUTE", 20),
			ViewsPerMinute: getIntConfigValue("", "RATE_LIMIT_VIEWS_PER_MINUTE", 120),
		},
	}

	var err error
	if cfg.Auth.AccessTokenDuration, err = getDurationConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h"); err != nil {
		return nil, err
	}
	if cfg.Lists.ViewDedupeWindow, err = getDurationConfigValue(*viewDedupe, "VIEW_DEDUPE_WINDOW", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue("", "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue("", "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue("", "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Lists.ViewDedupeWindow < 0 {
		return errors.New("view dedupe window cannot be negative")
	}

	switch c.Lists.DefaultSort {
	case "score", "name", "founded":
	default:
		return fmt.Errorf("invalid default sort: %s (must be score, name, or founded)", c.Lists.DefaultSort)
	}

	if c.RateLimit.AuthPerMinute <= 0 || c.RateLimit.ViewsPerMinute <= 0 {
		return errors.New("rate limits must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".listkeep"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
