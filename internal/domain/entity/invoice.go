package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de factura. Pagada es terminal.
const (
	InvoicePendiente = "Pendiente"
	InvoicePagada    = "Pagada"
)

// Invoice factura con comprobante fiscal (NCF) único por empresa.
// Es de solo lectura una vez copiados sus ítems.
type Invoice struct {
	ID            string
	CompanyID     string
	OrderID       string
	ClientID      string
	NCF           string
	InvoiceType   NCFSeries
	PaymentMethod string
	Date          time.Time
	Status        string
	Subtotal      decimal.Decimal
	ITBIS         decimal.Decimal
	Total         decimal.Decimal
	Items         []LineItem
	CreatedAt     time.Time
}

// Payment abono parcial o total a una factura.
type Payment struct {
	ID         string
	CompanyID  string
	InvoiceID  string
	Amount     decimal.Decimal
	Method     string
	RecordedBy string
	CreatedAt  time.Time
}
