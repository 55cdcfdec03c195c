package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/config"
)

func TestPoolConfigFor_ParametrosDeSesion(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "ventas", SSLMode: "disable",
		MaxConns: 7, LockTimeout: 1500}

	pc, err := poolConfigFor(cfg, "ventas-api")
	require.NoError(t, err)

	assert.EqualValues(t, 7, pc.MaxConns)
	assert.Equal(t, "ventas-api", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.NotNil(t, pc.AfterConnect)
	assert.NotNil(t, pc.ConnConfig.DialFunc)
}

func TestPoolConfigFor_SinMaximoUsaDefecto(t *testing.T) {
	pc, err := poolConfigFor(config.DBConfig{DatabaseURL: "postgres://u:p@db:5432/ventas?sslmode=disable"}, "")
	require.NoError(t, err)

	assert.EqualValues(t, 25, pc.MaxConns)
	_, ok := pc.ConnConfig.RuntimeParams["lock_timeout"]
	assert.False(t, ok)
}

func TestPoolConfigFor_DSNInvalido(t *testing.T) {
	_, err := poolConfigFor(config.DBConfig{DatabaseURL: "postgres://%zz"}, "")
	assert.Error(t, err)
}
