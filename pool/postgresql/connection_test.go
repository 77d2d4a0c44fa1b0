package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-dbpool/config"
	"github.com/gaborage/go-dbpool/logger"
	"github.com/gaborage/go-dbpool/pool/sqlbridge"
)

func TestQuoteDSN(t *testing.T) {
	cases := map[string]string{
		"":            "''",
		"simple":      "simple",
		"with.dot_ok": "with.dot_ok",
		"has space":   "'has space'",
		"p@ss'word":   `'p@ss\'word'`,
		`back\slash`:  `'back\\slash'`,
	}
	for input, want := range cases {
		assert.Equal(t, want, quoteDSN(input), "quoteDSN(%q)", input)
	}
}

func TestOpenUsesSeams(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	origOpen, origPing := openPostgresDB, pingPostgresDB
	t.Cleanup(func() {
		openPostgresDB, pingPostgresDB = origOpen, origPing
	})

	var parsed *pgx.ConnConfig
	openPostgresDB = func(cfg *pgx.ConnConfig) *sql.DB {
		parsed = cfg
		return db
	}
	pingPostgresDB = func(_ context.Context, _ *sql.DB) error {
		return nil
	}

	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Username: "app",
		Password: "secret",
		Database: "widgets",
		SSLMode:  "disable",
		MaxConns: 4,
	}

	conn, err := Open(cfg, logger.New("disabled", false))
	require.NoError(t, err)
	require.NotNil(t, conn)

	require.NotNil(t, parsed)
	assert.Equal(t, "db.internal", parsed.Host)
	assert.Equal(t, uint16(5433), parsed.Port)
	assert.Equal(t, "widgets", parsed.Database)

	bridge, ok := conn.(*sqlbridge.Conn)
	require.True(t, ok)
	assert.Same(t, db, bridge.DB())
}

func TestOpenFailsOnPingFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	origOpen, origPing := openPostgresDB, pingPostgresDB
	t.Cleanup(func() {
		openPostgresDB, pingPostgresDB = origOpen, origPing
	})

	openPostgresDB = func(_ *pgx.ConnConfig) *sql.DB {
		return db
	}
	pingPostgresDB = func(_ context.Context, _ *sql.DB) error {
		return errors.New("connection refused")
	}

	cfg := &config.DatabaseConfig{Host: "localhost", Port: 5432}
	_, err = Open(cfg, logger.New("disabled", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRejectsInvalidConnectionString(t *testing.T) {
	cfg := &config.DatabaseConfig{ConnectionString: "host=localhost port=notanumber"}
	_, err := Open(cfg, logger.New("disabled", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
