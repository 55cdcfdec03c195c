package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportSummary agregados principales de ventas en la ventana filtrada.
type ReportSummary struct {
	TotalSales       decimal.Decimal `db:"total_sales"`
	InvoiceCount     int             `db:"invoice_count"`
	UniqueClients    int             `db:"unique_clients"`
	ReturningClients int             `db:"returning_clients"`
	AvgTicket        decimal.Decimal `db:"avg_ticket"`
}

// Breakdown conteo y monto por clave (estado, método de pago).
type Breakdown struct {
	Key   string          `db:"key" json:"key"`
	Count int             `db:"count" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

// CategoryStat ventas por categoría de producto.
type CategoryStat struct {
	Category string          `db:"category" json:"category"`
	Count    int             `db:"count" json:"count"`
	Quantity int             `db:"quantity" json:"quantity"`
	Avg      decimal.Decimal `db:"avg" json:"avg"`
	Sum      decimal.Decimal `db:"sum" json:"sum"`
}

// SeriesPoint punto de una serie temporal.
type SeriesPoint struct {
	Period time.Time       `db:"period" json:"period"`
	Count  int             `db:"count" json:"count"`
	Total  decimal.Decimal `db:"total" json:"total"`
}

// RankItem posición en un top (clientes o categorías).
type RankItem struct {
	Key   string          `db:"key" json:"key"`
	Name  string          `db:"name" json:"name"`
	Count int             `db:"count" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

// InvoiceRow fila de detalle para listados y exportación.
type InvoiceRow struct {
	ID            string          `db:"id"`
	CompanyID     string          `db:"company_id"`
	NCF           string          `db:"ncf"`
	InvoiceType   string          `db:"invoice_type"`
	Date          time.Time       `db:"date"`
	ClientID      string          `db:"client_id"`
	ClientName    string          `db:"client_name"`
	Status        string          `db:"status"`
	PaymentMethod string          `db:"payment_method"`
	Subtotal      decimal.Decimal `db:"subtotal"`
	ITBIS         decimal.Decimal `db:"itbis"`
	Total         decimal.Decimal `db:"total"`
}

// StatementRow línea del estado de cuenta de un cliente.
type StatementRow struct {
	InvoiceID string          `db:"invoice_id"`
	NCF       string          `db:"ncf"`
	Date      time.Time       `db:"date"`
	Status    string          `db:"status"`
	Total     decimal.Decimal `db:"total"`
	Paid      decimal.Decimal `db:"paid"`
}

// Balance saldo pendiente de la línea.
func (r StatementRow) Balance() decimal.Decimal {
	return r.Total.Sub(r.Paid)
}
