package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func TestLogNotifier_IncluyeEmpresa(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.NewWithWriter(&buf, "info"))

	require.NoError(t, n.Send(context.Background(), "c1", "Stock bajo de Tornillo [TOR-01]"))
	assert.Contains(t, buf.String(), `"company_id":"c1"`)
	assert.Contains(t, buf.String(), "Stock bajo de Tornillo")
}

func TestLogMailer_SinDestinatarioNoRegistra(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(logger.NewWithWriter(&buf, "info"))

	require.NoError(t, m.SendEmail(context.Background(), "  ", "Factura", "<p>hola</p>"))
	assert.Empty(t, buf.String())

	require.NoError(t, m.SendEmail(context.Background(), "cliente@example.com", "Factura B0200000001", "<p>hola</p>"))
	assert.Contains(t, buf.String(), "Factura B0200000001")
}
