package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de cotización. vencida y convertida son terminales.
const (
	QuotationVigente    = "vigente"
	QuotationVencida    = "vencida"
	QuotationConvertida = "convertida"
)

// Quotation propuesta de precios a un cliente.
type Quotation struct {
	ID            string
	CompanyID     string
	ClientID      string
	WarehouseID   string
	SellerID      string
	PaymentMethod string
	Date          time.Time
	Status        string
	Subtotal      decimal.Decimal
	ITBIS         decimal.Decimal
	Total         decimal.Decimal
	Items         []LineItem
	CreatedAt     time.Time
}

// ExpiresAt fin de la vigencia.
func (q *Quotation) ExpiresAt(validity time.Duration) time.Time {
	return q.Date.Add(validity)
}

// IsExpired now > date + vigencia.
func (q *Quotation) IsExpired(now time.Time, validity time.Duration) bool {
	return now.After(q.ExpiresAt(validity))
}
