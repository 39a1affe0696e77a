// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Search    SearchConfig
	Analytics AnalyticsConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Genre     GenreConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the server runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DatabaseConfig holds catalog storage configuration.
type DatabaseConfig struct {
	// DataPath is the base directory for everything the server writes.
	DataPath string
	// SQLitePath is the catalog database file (default: {data}/stagepass.db).
	SQLitePath string
}

// SearchConfig holds search index configuration.
type SearchConfig struct {
	// IndexPath is the Bleve index directory (default: {data}/search).
	IndexPath string
	// InMemory keeps the index in RAM; it is rebuilt from the catalog on every start.
	InMemory bool
}

// AnalyticsConfig holds visitor analytics configuration.
type AnalyticsConfig struct {
	// Path is the Badger directory (default: {data}/analytics).
	Path string
	// Retention expires sessions after this long. Zero keeps them forever.
	Retention time.Duration
	// GCInterval is how often Badger value-log GC runs (default: 10m).
	GCInterval time.Duration
	// IngestPerMinute and IngestBurst rate-limit the public ingest endpoint per client IP.
	IngestPerMinute int
	IngestBurst     int
}

// AdminConfig holds admin access configuration.
type AdminConfig struct {
	// APIKey is the static bearer key for admin and developer endpoints.
	// Empty disables those endpoints outside development.
	APIKey string
}

// CORSConfig holds cross-origin configuration for the marketing site.
type CORSConfig struct {
	AllowedOrigins []string
}

// GenreConfig holds genre tree configuration.
type GenreConfig struct {
	// Language is the BCP 47 tag used to collate sibling genres (default: en).
	Language string
	// CacheSize is the number of built trees kept in memory (default: 16).
	CacheSize int
	// SeedDefaults creates the default taxonomy when the catalog has no genres (default: true).
	SeedDefaults bool
}

// LanguageTag returns the parsed collation language.
// Call after Validate; an invalid tag falls back to English.
func (g GenreConfig) LanguageTag() language.Tag {
	tag, err := language.Parse(g.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// LoadConfig loads configuration from the process command line.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("stagepass", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base directory for the database, search index and analytics")
	dbPath := fs.String("db-path", "", "SQLite catalog file (default: {data}/stagepass.db)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Search flags
	searchPath := fs.String("search-path", "", "Search index directory (default: {data}/search)")
	searchInMemory := fs.String("search-in-memory", "", "Keep the search index in memory (default: false)")

	// Analytics flags
	analyticsPath := fs.String("analytics-path", "", "Analytics directory (default: {data}/analytics)")
	analyticsRetention := fs.String("analytics-retention", "", "Session retention, 0 keeps forever (default: 2160h)")

	adminKey := fs.String("admin-key", "", "Static bearer key for admin endpoints")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")

	// Genre flags
	genreLanguage := fs.String("genre-language", "", "Collation language for genre names (default: en)")
	genreCacheSize := fs.String("genre-cache-size", "", "Number of genre trees to cache (default: 16)")
	seedGenres := fs.String("seed-genres", "", "Seed the default genres on an empty catalog (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			DataPath:   getConfigValue(*dataPath, "DATA_PATH", ""),
			SQLitePath: getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Search: SearchConfig{
			IndexPath: getConfigValue(*searchPath, "SEARCH_INDEX_PATH", ""),
			InMemory:  getBoolConfigValue(*searchInMemory, "SEARCH_IN_MEMORY", false),
		},
		Analytics: AnalyticsConfig{
			Path:            getConfigValue(*analyticsPath, "ANALYTICS_PATH", ""),
			IngestPerMinute: getIntConfigValue("", "ANALYTICS_INGEST_PER_MINUTE", 60),
			IngestBurst:     getIntConfigValue("", "ANALYTICS_INGEST_BURST", 20),
		},
		Admin: AdminConfig{
			APIKey: getConfigValue(*adminKey, "ADMIN_API_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "")),
		},
		Genre: GenreConfig{
			Language:     getConfigValue(*genreLanguage, "GENRE_LANGUAGE", "en"),
			CacheSize:    getIntConfigValue(*genreCacheSize, "GENRE_CACHE_SIZE", 16),
			SeedDefaults: getBoolConfigValue(*seedGenres, "SEED_GENRES", true),
		},
	}

	durations := []struct {
		dst             *time.Duration
		flagValue, key  string
		fallback, label string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Analytics.Retention, *analyticsRetention, "ANALYTICS_RETENTION", "2160h", "analytics retention"},
		{&cfg.Analytics.GCInterval, "", "ANALYTICS_GC_INTERVAL", "10m", "analytics GC interval"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.key, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.label, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// minAdminKeyLength keeps the static key out of brute-force range.
const minAdminKeyLength = 24

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.Database.DataPath == "" || c.Database.SQLitePath == "" {
		return errors.New("database paths cannot be empty after expansion")
	}
	if !c.Search.InMemory && c.Search.IndexPath == "" {
		return errors.New("search index path cannot be empty unless the index is in memory")
	}
	if c.Analytics.Path == "" {
		return errors.New("analytics path cannot be empty after expansion")
	}
	if c.Analytics.Retention < 0 {
		return fmt.Errorf("analytics retention must not be negative: %s", c.Analytics.Retention)
	}
	if c.Analytics.IngestPerMinute < 1 || c.Analytics.IngestBurst < 1 {
		return errors.New("analytics ingest rate and burst must be positive")
	}

	if c.Admin.APIKey != "" && len(c.Admin.APIKey) < minAdminKeyLength {
		return fmt.Errorf("admin API key must be at least %d characters", minAdminKeyLength)
	}
	if c.App.IsProduction() && c.Admin.APIKey == "" {
		return errors.New("ADMIN_API_KEY is required in production")
	}

	if _, err := language.Parse(c.Genre.Language); err != nil {
		return fmt.Errorf("invalid genre language %q: %w", c.Genre.Language, err)
	}
	if c.Genre.CacheSize < 1 {
		return fmt.Errorf("genre cache size must be positive: %d", c.Genre.CacheSize)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and the stores placed inside it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	data, err := expandPath(c.Database.DataPath, filepath.Join(homeDir, "StagePass", "data"))
	if err != nil {
		return err
	}
	c.Database.DataPath = data

	paths := []struct {
		dst      *string
		fallback string
	}{
		{&c.Database.SQLitePath, filepath.Join(data, "stagepass.db")},
		{&c.Search.IndexPath, filepath.Join(data, "search")},
		{&c.Analytics.Path, filepath.Join(data, "analytics")},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.dst, p.fallback)
		if err != nil {
			return err
		}
		*p.dst = expanded
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
