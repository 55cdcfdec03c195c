package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func TestNewWithWriter_JSONYNivel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn")

	log.Info().Msg("descartado")
	log.Warn().Str("job_id", "j1").Msg("aviso")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Equal(t, "aviso", entry["message"])
}

func TestComponentYTenant_AgreganCampos(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info").Component("export").Tenant("c1")

	log.Info().Msg("listo")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "export", entry["component"])
	assert.Equal(t, "c1", entry["company_id"])
}

func TestTenant_VacioNoAgregaCampo(t *testing.T) {
	var buf bytes.Buffer
	logger.NewWithWriter(&buf, "info").Tenant("").Info().Msg("barrido")

	assert.NotContains(t, buf.String(), "company_id")
}

func TestNivelDesconocidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "verboso")

	log.Debug().Msg("oculto")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visible")
}
