package entity

import "github.com/shopspring/decimal"

// LineItem copia de los datos del producto al momento de emitir el documento.
// Cotizaciones, pedidos y facturas comparten la misma forma; cambios posteriores
// del catálogo no alteran documentos ya emitidos.
type LineItem struct {
	ID        string
	ProductID string
	Code      string
	Reference string
	Name      string
	Unit      string
	UnitPrice decimal.Decimal
	Quantity  int
	Discount  decimal.Decimal // monto absoluto
	Category  string
	HasITBIS  bool
}

// Gross precio por cantidad, sin descuento.
func (l LineItem) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal bruto menos descuento.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Gross().Sub(l.Discount)
}
