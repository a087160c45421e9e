package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-faker/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSchema returns the schema tables are looked up in.
func DefaultSchema() string {
	return "public"
}

// FromDatabaseConfig creates a Config from the application database settings.
func FromDatabaseConfig(db config.DatabaseConfig) (*Config, error) {
	cfg := &Config{
		Host:     db.NetworkHost(),
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		Database: db.Database,
		Schema:   db.Schema,
		SSLMode:  db.SSLMode,
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	return cfg, nil
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User-provided fields are URL-escaped so passwords containing @, /, # or ?
// do not break URL parsing.
func buildConnectionString(cfg *Config) string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		cfg.SSLMode,
	)
}
