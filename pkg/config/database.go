// pkg/config/database.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// PostgresConfig holds PostgreSQL connection parameters for the audit store
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Schema   string // Default: public

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadPostgresConfig loads PostgreSQL configuration from AUDIT_DB_* environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := os.Getenv("AUDIT_DB_USER")
	if user == "" {
		return nil, errors.New("AUDIT_DB_USER environment variable is required")
	}

	password := os.Getenv("AUDIT_DB_PASSWORD")
	if password == "" {
		return nil, errors.New("AUDIT_DB_PASSWORD environment variable is required")
	}

	database := os.Getenv("AUDIT_DB_NAME")
	if database == "" {
		return nil, errors.New("AUDIT_DB_NAME environment variable is required")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("AUDIT_DB_HOST", "localhost"),
		Port:     getEnvAsInt("AUDIT_DB_PORT", 5432),
		User:     user,
		Password: password,
		Database: database,
		SSLMode:  getEnv("AUDIT_DB_SSLMODE", "disable"),
		Schema:   getEnv("AUDIT_DB_SCHEMA", "public"),

		MaxOpenConns:     getEnvAsInt("AUDIT_DB_MAX_OPEN_CONNS", 4),
		MaxIdleConns:     getEnvAsInt("AUDIT_DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("AUDIT_DB_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("AUDIT_DB_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(getEnvAsInt("AUDIT_DB_STATEMENT_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
