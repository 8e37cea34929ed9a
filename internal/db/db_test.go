package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/charter-scheduling/internal/config"
)

func TestPostgresDSN(t *testing.T) {
	cfg := &config.DBConfig{
		Host:     "postgres",
		Port:     5432,
		User:     "charter",
		Password: "it's secret",
		Name:     "charter_db",
		SSLMode:  "disable",
		TimeZone: "Europe/Berlin",
	}

	assert.Equal(t,
		`host=postgres port=5432 user=charter password='it\'s secret' dbname=charter_db sslmode=disable TimeZone=Europe/Berlin`,
		postgresDSN(cfg),
	)
}

func TestDSNValue(t *testing.T) {
	assert.Equal(t, "plain", dsnValue("plain"))
	assert.Equal(t, "''", dsnValue(""))
	assert.Equal(t, `'a b'`, dsnValue("a b"))
	assert.Equal(t, `'back\\slash'`, dsnValue(`back\slash`))
}

func TestOpen_SQLiteSingleConnection(t *testing.T) {
	gdb, err := Open(&config.DBConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.Equal(t, "sqlite", gdb.Dialector.Name())
}
