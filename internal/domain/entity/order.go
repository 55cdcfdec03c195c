package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pedido. Entregado es terminal (se fija al facturar).
const (
	OrderPendiente = "Pendiente"
	OrderEntregado = "Entregado"
)

// Order pedido creado a partir de una cotización vigente.
type Order struct {
	ID            string
	CompanyID     string
	QuotationID   string
	ClientID      string
	WarehouseID   string
	SellerID      string
	CustomerPO    string
	PaymentMethod string
	Date          time.Time
	DeliveryDate  *time.Time
	Status        string
	Subtotal      decimal.Decimal
	ITBIS         decimal.Decimal
	Total         decimal.Decimal
	Items         []LineItem
	CreatedAt     time.Time
}
