package tabular

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Ventas-api/internal/application/export"
)

func TestCSV_ConBOMYMontosConDosDecimales(t *testing.T) {
	var buf bytes.Buffer
	tw, err := Encoder{}.NewTable(export.FormatCSV, &buf, []string{"NCF", "Cliente", "Total"})
	require.NoError(t, err)
	require.NoError(t, tw.WriteRow([]any{"B0200000001", "Peña, S.R.L.", decimal.NewFromInt(281)}))
	require.NoError(t, tw.Close())

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, out, "NCF,Cliente,Total\n")
	assert.Contains(t, out, `B0200000001,"Peña, S.R.L.",281.00`)
}

func TestCSV_BOMUnaSolaVezAunqueSoloHayaEncabezado(t *testing.T) {
	var buf bytes.Buffer
	tw, err := Encoder{}.NewTable(export.FormatCSV, &buf, []string{"Categoría", "Total"})
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	assert.Equal(t, "\ufeffCategoría,Total\n", buf.String())

	buf.Reset()
	tw, err = Encoder{}.NewTable(export.FormatCSV, &buf, []string{"A"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, tw.WriteRow([]any{"Ñame"}))
	}
	require.NoError(t, tw.Close())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, "\ufeffA\nÑame\nÑame\nÑame\n", buf.String())
}

func TestXLSX_EncabezadoYFilasNumericas(t *testing.T) {
	var buf bytes.Buffer
	tw, err := Encoder{}.NewTable(export.FormatXLSX, &buf, []string{"Categoría", "Cantidad", "Total"})
	require.NoError(t, err)
	require.NoError(t, tw.WriteRow([]any{"Ferretería", 3, decimal.RequireFromString("245.50")}))
	require.NoError(t, tw.WriteRow([]any{"Pinturas", 1, decimal.NewFromInt(36)}))
	require.NoError(t, tw.Close())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Categoría", "Cantidad", "Total"}, rows[0])
	assert.Equal(t, "Ferretería", rows[1][0])
	assert.Equal(t, "245.5", rows[1][2])
}

func TestEncoder_FormatoDesconocido(t *testing.T) {
	_, err := Encoder{}.NewTable("pdf", &bytes.Buffer{}, nil)
	assert.Error(t, err)
}
