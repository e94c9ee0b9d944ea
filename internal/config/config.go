// Package config loads application configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/folioadmin/folio-admin/internal/domain"
)

// Backend drivers.
const (
	BackendSQLite  = "sqlite"
	BackendGraphQL = "graphql"
)

// Upload providers.
const (
	UploadLocal      = "local"
	UploadCloudinary = "cloudinary"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Backend BackendConfig
	Upload  UploadConfig
	Catalog CatalogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // base directory for the SQLite file and local uploads
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // empty picks json in production, pretty otherwise
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// BackendConfig selects and configures the catalog backend.
type BackendConfig struct {
	Driver     string // sqlite or graphql
	Endpoint   string
	Token      string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	IDType     string // GraphQL scalar of the id argument, e.g. "Int" or "String"
	SQLitePath string
}

// UploadConfig configures the upload collaborator.
type UploadConfig struct {
	Provider      string // local or cloudinary
	CloudName     string
	Preset        string
	Folder        string
	LocalDir      string
	PublicBaseURL string
	MaxBytes      int64
	MaxDimension  int
	Timeout       time.Duration
	SubmitWait    time.Duration // how long submit waits on an in-flight upload
	RPS           float64       // inbound uploads per second per client
	Burst         int
}

// CatalogConfig holds the deployment constants of the catalog.
type CatalogConfig struct {
	Languages  []domain.LanguageCode
	LinkedinID string
	ProfileID  string
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("folio-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base directory for local data")
	port := fs.String("port", "", "Server port (default: 8080)")
	backend := fs.String("backend", "", "Catalog backend: sqlite or graphql")
	endpoint := fs.String("graphql-endpoint", "", "GraphQL endpoint URL")
	uploadProvider := fs.String("upload-provider", "", "Upload provider: local or cloudinary")
	languages := fs.String("languages", "", "Comma separated language codes (default: en,ka)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue("", "LOG_FORMAT", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "*")),
		},
		Backend: BackendConfig{
			Driver:     getConfigValue(*backend, "BACKEND", BackendSQLite),
			Endpoint:   getConfigValue(*endpoint, "GRAPHQL_ENDPOINT", ""),
			Token:      getConfigValue("", "GRAPHQL_TOKEN", ""),
			Burst:      getIntConfigValue("", "GRAPHQL_BURST", 10),
			IDType:     getConfigValue("", "GRAPHQL_ID_TYPE", "Int"),
			SQLitePath: getConfigValue("", "SQLITE_PATH", ""),
		},
		Upload: UploadConfig{
			Provider:      getConfigValue(*uploadProvider, "UPLOAD_PROVIDER", UploadLocal),
			CloudName:     getConfigValue("", "CLOUDINARY_CLOUD_NAME", ""),
			Preset:        getConfigValue("", "CLOUDINARY_UPLOAD_PRESET", ""),
			Folder:        getConfigValue("", "CLOUDINARY_FOLDER", ""),
			LocalDir:      getConfigValue("", "UPLOAD_DIR", ""),
			PublicBaseURL: getConfigValue("", "UPLOAD_PUBLIC_URL", ""),
			MaxBytes:      int64(getIntConfigValue("", "UPLOAD_MAX_BYTES", 10<<20)),
			MaxDimension:  getIntConfigValue("", "UPLOAD_MAX_DIMENSION", 1600),
			Burst:         getIntConfigValue("", "UPLOAD_BURST", 5),
		},
		Catalog: CatalogConfig{
			LinkedinID: getConfigValue("", "CATALOG_LINKEDIN_ID", "1"),
			ProfileID:  getConfigValue("", "CATALOG_PROFILE_ID", "1"),
		},
	}

	var err error
	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", "60s"},
		{&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Backend.Timeout, "GRAPHQL_TIMEOUT", "15s"},
		{&cfg.Upload.Timeout, "UPLOAD_TIMEOUT", "60s"},
		{&cfg.Upload.SubmitWait, "SUBMIT_UPLOAD_WAIT", "0s"},
	}
	for _, d := range durations {
		if *d.dst, err = getDurationConfigValue(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.Backend.RPS, err = getFloatConfigValue("GRAPHQL_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.Upload.RPS, err = getFloatConfigValue("UPLOAD_RPS", 1); err != nil {
		return nil, err
	}

	cfg.Catalog.Languages, err = domain.ParseLanguages(getConfigValue(*languages, "LANGUAGES", "en,ka"))
	if err != nil {
		return nil, fmt.Errorf("invalid languages: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if f := c.Logger.Format; f != "" && f != "json" && f != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", f)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	switch c.Backend.Driver {
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			return errors.New("sqlite path cannot be empty")
		}
	case BackendGraphQL:
		u, err := url.Parse(c.Backend.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("graphql backend needs an absolute GRAPHQL_ENDPOINT, got %q", c.Backend.Endpoint)
		}
	default:
		return fmt.Errorf("invalid backend: %q (must be sqlite or graphql)", c.Backend.Driver)
	}

	switch c.Upload.Provider {
	case UploadLocal:
		if c.Upload.LocalDir == "" {
			return errors.New("upload dir cannot be empty")
		}
	case UploadCloudinary:
		if c.Upload.CloudName == "" || c.Upload.Preset == "" {
			return errors.New("cloudinary needs CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET")
		}
	default:
		return fmt.Errorf("invalid upload provider: %q (must be local or cloudinary)", c.Upload.Provider)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}
	if c.Upload.SubmitWait < 0 {
		return errors.New("submit upload wait cannot be negative")
	}

	if !sameLanguages(c.Catalog.Languages, domain.DefaultLanguages) {
		return fmt.Errorf("invalid languages: %v (every entity is stored in exactly %v)",
			c.Catalog.Languages, domain.DefaultLanguages)
	}
	return nil
}

// sameLanguages reports whether a and b hold the same codes in any order.
func sameLanguages(a, b []domain.LanguageCode) bool {
	if len(a) != len(b) {
		return false
	}
	for _, code := range b {
		if !slices.Contains(a, code) {
			return false
		}
	}
	return true
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Server.Port
}

// expandPaths resolves the data directory and the paths derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, ".folio-admin")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Backend.SQLitePath, err = expandPath(c.Backend.SQLitePath, filepath.Join(c.App.DataPath, "catalog.db")); err != nil {
		return fmt.Errorf("invalid sqlite path: %w", err)
	}
	if c.Upload.LocalDir, err = expandPath(c.Upload.LocalDir, c.App.DataPath); err != nil {
		return fmt.Errorf("invalid upload dir: %w", err)
	}
	if c.Upload.PublicBaseURL == "" {
		c.Upload.PublicBaseURL = "http://localhost:" + c.Server.Port + "/uploads"
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
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(envKey string, defaultValue float64) (float64, error) {
	strValue := os.Getenv(envKey)
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

func getDurationConfigValue(envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
