// pkg/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Dataset and artifact locations
	Dataset      string
	RawDir       string
	ProcessedDir string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Number of rows rendered in diagnostic previews
	PreviewRows int

	// GeoJSON property handling on ingest
	EmptyStringAsNull bool
	NestedAsJSON      bool

	// Audit store
	AuditEnabled bool
	AuditDB      *PostgresConfig
}

// LoadConfig loads configuration from an optional .env file and environment
// variables. Callers apply their overrides and then call Validate.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Dataset:      getEnv("PATHPREP_DATASET", "piste-ciclopedonali"),
		RawDir:       getEnv("PATHPREP_RAW_DIR", filepath.Join("data", "raw")),
		ProcessedDir: getEnv("PATHPREP_PROCESSED_DIR", filepath.Join("data", "processed")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		LogFile:      getEnv("LOG_FILE", filepath.Join("logs", "pipeline.log")),
		PreviewRows:  getEnvAsInt("PREVIEW_ROWS", 5),
		AuditEnabled: getEnvAsBool("AUDIT_ENABLED", false),

		EmptyStringAsNull: getEnvAsBool("EMPTY_STRING_AS_NULL", false),
		NestedAsJSON:      getEnvAsBool("NESTED_AS_JSON", true),
	}

	if cfg.AuditEnabled {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load audit database configuration")
		}
		cfg.AuditDB = pgConfig
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dataset) == "" {
		return errors.New("dataset name is required")
	}

	if c.RawDir == "" || c.ProcessedDir == "" {
		return errors.New("raw and processed directories are required")
	}

	if c.PreviewRows < 0 {
		return errors.New("preview rows cannot be negative")
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return errors.Errorf("unsupported log format %q", c.LogFormat)
	}

	if c.AuditEnabled && c.AuditDB == nil {
		return errors.New("audit database configuration is required when auditing is enabled")
	}

	return nil
}

// RawGeoJSONPath is the default ingest input
func (c *Config) RawGeoJSONPath() string {
	return filepath.Join(c.RawDir, c.Dataset+".geojson")
}

// RawParquetPath is the default ingest output and clean input
func (c *Config) RawParquetPath() string {
	return filepath.Join(c.RawDir, c.Dataset+".parquet")
}

// ProcessedParquetPath is the default clean output
func (c *Config) ProcessedParquetPath() string {
	return filepath.Join(c.ProcessedDir, c.Dataset+".parquet")
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
