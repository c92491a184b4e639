package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `json:"path"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypePostgreSQL:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Postgres.Host,
			c.Postgres.Username,
			c.Postgres.Password,
			c.Postgres.Database,
			c.Postgres.Port,
			c.Postgres.SSLMode,
			c.Postgres.TimeZone,
		)
	default:
		return c.SQLite.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"
	}
}

// GetDatabaseConfig builds the database configuration from the environment,
// falling back to the defaults below.
func GetDatabaseConfig() *DatabaseConfig {
	c := GetDefaultDatabaseConfig()
	if t := getenv("YAMDB_DB_TYPE"); t != "" {
		c.Type = DatabaseType(t)
	}
	if p := getenv("YAMDB_DB_PATH"); p != "" {
		c.SQLite.Path = p
	}
	if h := getenv("YAMDB_PG_HOST"); h != "" {
		c.Postgres.Host = h
	}
	c.Postgres.Port = getInt("YAMDB_PG_PORT", c.Postgres.Port)
	if d := getenv("YAMDB_PG_DB"); d != "" {
		c.Postgres.Database = d
	}
	if u := getenv("YAMDB_PG_USER"); u != "" {
		c.Postgres.Username = u
	}
	if pw := getenv("YAMDB_PG_PASSWORD"); pw != "" {
		c.Postgres.Password = pw
	}
	if m := getenv("YAMDB_PG_SSLMODE"); m != "" {
		c.Postgres.SSLMode = m
	}
	if tz := getenv("YAMDB_PG_TZ"); tz != "" {
		c.Postgres.TimeZone = tz
	}
	return c
}

// GetDefaultDatabaseConfig returns default database configuration
func GetDefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: getDefaultSQLitePath(),
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "yamdb",
			Username: "yamdb",
			Password: "",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
	}
}

// NewSQLiteConfig returns a configuration for the sqlite file at path.
func NewSQLiteConfig(path string) *DatabaseConfig {
	c := GetDefaultDatabaseConfig()
	c.SQLite.Path = path
	return c
}

func getDefaultSQLitePath() string {
	if IsDebug() {
		return "db/yamdb.db"
	}
	return "/var/lib/yamdb/yamdb.db"
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	case DatabaseTypePostgreSQL:
		if c.Postgres.Host == "" {
			return fmt.Errorf("PostgreSQL host cannot be empty")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL database name cannot be empty")
		}
		if c.Postgres.Username == "" {
			return fmt.Errorf("PostgreSQL username cannot be empty")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("PostgreSQL port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// IsPostgreSQL returns true if the database type is PostgreSQL
func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type == DatabaseTypeSQLite {
		dir := filepath.Dir(c.SQLite.Path)
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
