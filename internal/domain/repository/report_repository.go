package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ReportFilter ventana de reportes sobre facturas.
type ReportFilter struct {
	CompanyID string     `json:"company_id,omitempty"` // "" = todas (bypass)
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Status    string     `json:"status,omitempty"`
	Category  string     `json:"category,omitempty"` // facturas con al menos un ítem de la categoría
	ClientID  string     `json:"client_id,omitempty"`
}

// ReportRepository consultas agregadas de solo lectura. Cada método es una sola
// consulta de agregación; ninguna recorre filas en la aplicación.
type ReportRepository interface {
	Summary(ctx context.Context, f ReportFilter) (*entity.ReportSummary, error)
	AvgTicket(ctx context.Context, f ReportFilter) (decimal.Decimal, error)
	StatusBreakdown(ctx context.Context, f ReportFilter) ([]entity.Breakdown, error)
	PaymentMethodBreakdown(ctx context.Context, f ReportFilter) ([]entity.Breakdown, error)
	CategoryStats(ctx context.Context, f ReportFilter) ([]entity.CategoryStat, error)
	DailySeries(ctx context.Context, f ReportFilter) ([]entity.SeriesPoint, error)
	MonthlySeries(ctx context.Context, f ReportFilter) ([]entity.SeriesPoint, error)
	TopClients(ctx context.Context, f ReportFilter, limit int) ([]entity.RankItem, error)
	TopCategories(ctx context.Context, f ReportFilter, limit int) ([]entity.RankItem, error)
	CountInvoices(ctx context.Context, f ReportFilter) (int, error)
	ListInvoices(ctx context.Context, f ReportFilter, limit, offset int) ([]entity.InvoiceRow, error)
	// StreamInvoices recorre las filas con memoria acotada; fn se llama por fila.
	StreamInvoices(ctx context.Context, f ReportFilter, fn func(entity.InvoiceRow) error) error
	Statement(ctx context.Context, companyID, clientID string) ([]entity.StatementRow, error)
}
