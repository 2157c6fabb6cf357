package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSNEnablesParseTime(t *testing.T) {
	out, err := normalizeDSN("mysql", "shop:secret@tcp(db:3306)/dafamedic?charset=utf8mb4")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(out)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "dafamedic", cfg.DBName)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "utf8mb4", cfg.Params["charset"])
}

func TestNormalizeDSNOverridesParseTimeFalse(t *testing.T) {
	out, err := normalizeDSN("mysql", "shop:secret@tcp(db:3306)/dafamedic?parseTime=false")
	require.NoError(t, err)
	assert.Contains(t, out, "parseTime=true")
}

func TestNormalizeDSNLeavesPostgresAlone(t *testing.T) {
	dsn := "postgres://shop:secret@db:5432/dafamedic?sslmode=disable"
	out, err := normalizeDSN("postgres", dsn)
	require.NoError(t, err)
	assert.Equal(t, dsn, out)
}

func TestNormalizeDSNRejectsMalformedMySQL(t *testing.T) {
	_, err := normalizeDSN("mysql", "shop:secret@tcp(db:3306")
	assert.Error(t, err)
}
