package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.18, cfg.Workflow.TaxRate, 1e-9)
	assert.Equal(t, 30, cfg.Workflow.QuotationValidityDays)
	assert.Equal(t, 50000, cfg.Export.MaxRows)
	assert.Equal(t, "inprocess", cfg.Export.Queue)
	assert.EqualValues(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 5000, cfg.DB.LockTimeout)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("TAX_RATE", "0.16")
	t.Setenv("EXPORT_MAX_ROWS", "100")
	t.Setenv("EXPORT_QUEUE", "Redis")
	t.Setenv("EXPORT_GZIP", "true")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.16, cfg.Workflow.TaxRate, 1e-9)
	assert.Equal(t, 100, cfg.Export.MaxRows)
	assert.Equal(t, "redis", cfg.Export.Queue)
	assert.True(t, cfg.Export.Gzip)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoad_ColaDesconocida(t *testing.T) {
	t.Setenv("EXPORT_QUEUE", "kafka")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "ventas", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/ventas?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://x"
	assert.Equal(t, "postgresql://x", c.ConnectionString())
}
