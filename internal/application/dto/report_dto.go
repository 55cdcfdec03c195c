package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ReportDTO respuesta de GET /api/reports.
type ReportDTO struct {
	// Ventana filtrada
	TotalSales       decimal.Decimal `json:"total_sales"`
	InvoiceCount     int             `json:"invoice_count"`
	UniqueClients    int             `json:"unique_clients"`
	ReturningClients int             `json:"returning_clients"`
	RetentionRate    decimal.Decimal `json:"retention_rate"` // % de clientes con más de una factura
	AvgTicket        decimal.Decimal `json:"avg_ticket"`

	// Ticket promedio del mes y del año en curso
	AvgTicketMonth decimal.Decimal `json:"avg_ticket_month"`
	AvgTicketYear  decimal.Decimal `json:"avg_ticket_year"`
	MonthLabel     string          `json:"month_label"` // ej: "Mayo 2026"

	StatusBreakdown []entity.Breakdown    `json:"status_breakdown"`
	PaymentMethods  []entity.Breakdown    `json:"payment_methods"`
	Categories      []entity.CategoryStat `json:"categories"`
	Daily           []entity.SeriesPoint  `json:"daily"`
	MonthlyTrend    []entity.SeriesPoint  `json:"monthly_trend"` // 24 meses, meses sin ventas en cero

	// Últimos 12 meses
	TopClients    []entity.RankItem `json:"top_clients"`
	TopCategories []entity.RankItem `json:"top_categories"`

	Invoices []InvoiceRowDTO `json:"invoices"`
	Page     PageResponse    `json:"page"`
}

// InvoiceRowDTO fila del listado de facturas del reporte.
type InvoiceRowDTO struct {
	ID            string          `json:"id"`
	NCF           string          `json:"ncf"`
	InvoiceType   string          `json:"invoice_type"`
	Date          time.Time       `json:"date"`
	ClientID      string          `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ITBIS         decimal.Decimal `json:"itbis"`
	Total         decimal.Decimal `json:"total"`
}

// InvoiceRowFromEntity mapea una fila del repositorio.
func InvoiceRowFromEntity(r entity.InvoiceRow) InvoiceRowDTO {
	return InvoiceRowDTO{
		ID:            r.ID,
		NCF:           r.NCF,
		InvoiceType:   r.InvoiceType,
		Date:          r.Date,
		ClientID:      r.ClientID,
		ClientName:    r.ClientName,
		Status:        r.Status,
		PaymentMethod: r.PaymentMethod,
		Subtotal:      r.Subtotal,
		ITBIS:         r.ITBIS,
		Total:         r.Total,
	}
}

// StatementDTO estado de cuenta de un cliente.
type StatementDTO struct {
	ClientID   string             `json:"client_id"`
	ClientName string             `json:"client_name"`
	Lines      []StatementLineDTO `json:"lines"`
	Total      decimal.Decimal    `json:"total"`
	Paid       decimal.Decimal    `json:"paid"`
	Balance    decimal.Decimal    `json:"balance"`
}

// StatementLineDTO factura dentro del estado de cuenta.
type StatementLineDTO struct {
	InvoiceID string          `json:"invoice_id"`
	NCF       string          `json:"ncf"`
	Date      time.Time       `json:"date"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Balance   decimal.Decimal `json:"balance"`
}
