package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDatabaseConfigFromEnv(t *testing.T) {
	t.Setenv("YAMDB_DB_TYPE", "postgres")
	t.Setenv("YAMDB_PG_HOST", "db.internal")
	t.Setenv("YAMDB_PG_PORT", "6432")
	t.Setenv("YAMDB_PG_DB", "catalog")

	c := GetDatabaseConfig()
	assert.True(t, c.IsPostgreSQL())
	assert.NoError(t, c.ValidateConfig())
	assert.Contains(t, c.GetDSN(), "host=db.internal")
	assert.Contains(t, c.GetDSN(), "port=6432")
	assert.Contains(t, c.GetDSN(), "dbname=catalog")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		wantErr bool
	}{
		{"sqlite ok", DatabaseConfig{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: "x.db"}}, false},
		{"sqlite empty path", DatabaseConfig{Type: DatabaseTypeSQLite}, true},
		{"postgres bad port", DatabaseConfig{Type: DatabaseTypePostgreSQL, Postgres: PostgresConfig{Host: "h", Database: "d", Username: "u", Port: 0}}, true},
		{"unknown type", DatabaseConfig{Type: "mysql"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationsFallBackOnGarbage(t *testing.T) {
	t.Setenv("YAMDB_TOKEN_TTL", "soon")
	assert.Equal(t, 24*time.Hour, GetTokenTTL())

	t.Setenv("YAMDB_TOKEN_TTL", "90m")
	assert.Equal(t, 90*time.Minute, GetTokenTTL())
}

func TestPageSize(t *testing.T) {
	t.Setenv("YAMDB_PAGE_SIZE", "-3")
	assert.Equal(t, 10, GetPageSize())
	t.Setenv("YAMDB_PAGE_SIZE", "25")
	assert.Equal(t, 25, GetPageSize())
}
