// Package sales contiene el cálculo puro de líneas y totales de documentos comerciales.
// Cotización, pedido y factura usan las mismas funciones; no hay tres copias de la
// matemática de descuento e ITBIS.
package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Totals montos del documento.
type Totals struct {
	Subtotal decimal.Decimal
	ITBIS    decimal.Decimal
	Total    decimal.Decimal
}

// SnapshotLine copia los datos del producto a una línea nueva.
// El descuento se guarda como monto: precio * cantidad * pct / 100.
func SnapshotLine(p *entity.Product, quantity int, discountPct decimal.Decimal) entity.LineItem {
	line := entity.LineItem{
		ID:        uuid.New().String(),
		ProductID: p.ID,
		Code:      p.Code,
		Reference: p.Reference,
		Name:      p.Name,
		Unit:      p.Unit,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Category:  p.Category,
		HasITBIS:  p.HasITBIS,
	}
	line.Discount = line.Gross().Mul(discountPct).Div(hundred).Round(2)
	return line
}

// CopyLines copia las líneas de un documento a otro con IDs nuevos.
// Es la única operación de copia entre cotización → pedido → factura.
func CopyLines(src []entity.LineItem) []entity.LineItem {
	out := make([]entity.LineItem, len(src))
	for i, l := range src {
		l.ID = uuid.New().String()
		out[i] = l
	}
	return out
}

// ComputeTotals subtotal = Σ(bruto − descuento); ITBIS = Σ(subtotal·tasa) en líneas gravadas.
func ComputeTotals(items []entity.LineItem, taxRate decimal.Decimal) Totals {
	var t Totals
	for _, l := range items {
		sub := l.Subtotal()
		t.Subtotal = t.Subtotal.Add(sub)
		if l.HasITBIS {
			t.ITBIS = t.ITBIS.Add(sub.Mul(taxRate))
		}
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.ITBIS = t.ITBIS.Round(2)
	t.Total = t.Subtotal.Add(t.ITBIS)
	return t
}
