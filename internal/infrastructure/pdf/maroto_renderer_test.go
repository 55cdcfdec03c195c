package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "RD$ 0.00", formatMoney(decimal.Zero))
	assert.Equal(t, "RD$ 281.00", formatMoney(decimal.NewFromInt(281)))
	assert.Equal(t, "RD$ 1,234,567.50", formatMoney(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "-RD$ 19.00", formatMoney(decimal.NewFromInt(-19)))
}

func TestColumnSizes_SumanDoce(t *testing.T) {
	for _, n := range []int{1, 5, 7, 12} {
		total := 0
		for _, s := range columnSizes(n) {
			total += s
		}
		assert.Equal(t, 12, total, "n=%d", n)
	}
}

func TestRenderInvoice_GeneraPDF(t *testing.T) {
	inv := &entity.Invoice{
		NCF: "B0100000007", InvoiceType: entity.SeriesFiscal, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status: entity.InvoicePendiente, PaymentMethod: "Transferencia",
		Subtotal: decimal.NewFromInt(200), ITBIS: decimal.NewFromInt(36), Total: decimal.NewFromInt(236),
		Items: []entity.LineItem{
			{Code: "TOR-01", Name: "Tornillo", UnitPrice: decimal.NewFromInt(100), Quantity: 2, HasITBIS: true},
		},
	}
	company := &entity.Company{Name: "Ferretería Bella Vista", RNC: "131000000"}
	client := &entity.Client{Name: "Constructora del Este", Identifier: "101000000"}

	b, err := NewMarotoRenderer().RenderInvoice(context.Background(), inv, company, client, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestRenderTable_EscribeEnElWriter(t *testing.T) {
	var buf bytes.Buffer
	err := NewMarotoRenderer().RenderTable(context.Background(), &buf, export.TableDocument{
		Title:   "Estado de cuenta",
		Headers: []string{"Fecha", "NCF", "Total"},
		Rows:    [][]string{{"02/03/2026", "B0200000001", "281.00"}},
		Footer:  []string{"", "Total", "281.00"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
