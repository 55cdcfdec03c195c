// Package reports contiene el agregador de reportes de ventas y el estado de cuenta de clientes.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

const (
	topN        = 5  // clientes y categorías en los top
	trendMonths = 24 // meses de la tendencia
)

// ReportQuery filtros de GET /api/reports.
type ReportQuery struct {
	From     *time.Time
	To       *time.Time
	Status   string
	Category string
	Limit    int
	Offset   int
}

// ReportUseCase agregados de solo lectura sobre facturas.
//
// Fuente de datos: ReportRepository. Cada cifra es una consulta agregada; las consultas
// independientes se lanzan en paralelo.
type ReportUseCase struct {
	reports repository.ReportRepository
	catalog repository.CatalogRepository
	now     func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(reports repository.ReportRepository, catalog repository.CatalogRepository) *ReportUseCase {
	return &ReportUseCase{reports: reports, catalog: catalog, now: time.Now}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *ReportUseCase) WithClock(now func() time.Time) *ReportUseCase {
	uc.now = now
	return uc
}

// Filter arma el filtro del repositorio para el alcance. Lo usa también la exportación.
func Filter(scope tenant.Scope, q ReportQuery) (repository.ReportFilter, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return repository.ReportFilter{}, domain.NewValidationError("from", "la fecha inicial es posterior a la final")
	}
	return repository.ReportFilter{
		CompanyID: scope.Filter(),
		From:      q.From,
		To:        q.To,
		Status:    q.Status,
		Category:  q.Category,
	}, nil
}

// Dashboard construye el ReportDTO de la ventana filtrada.
func (uc *ReportUseCase) Dashboard(ctx context.Context, scope tenant.Scope, q ReportQuery) (*dto.ReportDTO, error) {
	f, err := Filter(scope, q)
	if err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}.Normalize()

	// ── Rangos fijos ──────────────────────────────────────────────────────────
	now := uc.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)
	topStart := now.AddDate(-1, 0, 0)

	within := func(from time.Time) repository.ReportFilter {
		w := f
		w.From, w.To = &from, &now
		return w
	}

	out := &dto.ReportDTO{MonthLabel: monthLabel(now)}
	var summary *entity.ReportSummary
	var trend []entity.SeriesPoint
	var rows []entity.InvoiceRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = uc.reports.Summary(gctx, f)
		return wrap("resumen", err)
	})
	g.Go(func() (err error) {
		out.AvgTicketMonth, err = uc.reports.AvgTicket(gctx, within(monthStart))
		return wrap("ticket del mes", err)
	})
	g.Go(func() (err error) {
		out.AvgTicketYear, err = uc.reports.AvgTicket(gctx, within(yearStart))
		return wrap("ticket del año", err)
	})
	g.Go(func() (err error) {
		out.StatusBreakdown, err = uc.reports.StatusBreakdown(gctx, f)
		return wrap("estados", err)
	})
	g.Go(func() (err error) {
		out.PaymentMethods, err = uc.reports.PaymentMethodBreakdown(gctx, f)
		return wrap("métodos de pago", err)
	})
	g.Go(func() (err error) {
		out.Categories, err = uc.reports.CategoryStats(gctx, f)
		return wrap("categorías", err)
	})
	g.Go(func() (err error) {
		out.Daily, err = uc.reports.DailySeries(gctx, f)
		return wrap("serie diaria", err)
	})
	g.Go(func() (err error) {
		trend, err = uc.reports.MonthlySeries(gctx, within(trendStart))
		return wrap("tendencia", err)
	})
	g.Go(func() (err error) {
		out.TopClients, err = uc.reports.TopClients(gctx, within(topStart), topN)
		return wrap("top clientes", err)
	})
	g.Go(func() (err error) {
		out.TopCategories, err = uc.reports.TopCategories(gctx, within(topStart), topN)
		return wrap("top categorías", err)
	})
	g.Go(func() (err error) {
		out.Page.Total, err = uc.reports.CountInvoices(gctx, f)
		return wrap("conteo", err)
	})
	g.Go(func() (err error) {
		rows, err = uc.reports.ListInvoices(gctx, f, page.Limit, page.Offset)
		return wrap("facturas", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TotalSales = summary.TotalSales.Round(2)
	out.InvoiceCount = summary.InvoiceCount
	out.UniqueClients = summary.UniqueClients
	out.ReturningClients = summary.ReturningClients
	out.AvgTicket = summary.AvgTicket.Round(2)
	out.RetentionRate = retention(summary.ReturningClients, summary.UniqueClients)
	out.AvgTicketMonth = out.AvgTicketMonth.Round(2)
	out.AvgTicketYear = out.AvgTicketYear.Round(2)
	out.MonthlyTrend = fillMonths(trend, trendStart, trendMonths)
	out.Page.Limit, out.Page.Offset = page.Limit, page.Offset
	out.Invoices = make([]dto.InvoiceRowDTO, len(rows))
	for i, r := range rows {
		out.Invoices[i] = dto.InvoiceRowFromEntity(r)
	}
	out.Page.HasMore = page.Offset+len(rows) < out.Page.Total
	return out, nil
}

// ClientStatement facturas del cliente con lo abonado y el saldo de cada una.
func (uc *ReportUseCase) ClientStatement(ctx context.Context, scope tenant.Scope, clientID string) (*dto.StatementDTO, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	client, err := uc.catalog.GetClient(ctx, companyID, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, &domain.NotFoundError{Resource: "cliente", ID: clientID}
	}
	rows, err := uc.reports.Statement(ctx, companyID, clientID)
	if err != nil {
		return nil, fmt.Errorf("estado de cuenta: %w", err)
	}
	out := &dto.StatementDTO{
		ClientID:   client.ID,
		ClientName: client.Name,
		Lines:      make([]dto.StatementLineDTO, len(rows)),
	}
	for i, r := range rows {
		bal := r.Balance()
		if bal.IsNegative() {
			bal = decimal.Zero
		}
		out.Lines[i] = dto.StatementLineDTO{
			InvoiceID: r.InvoiceID, NCF: r.NCF, Date: r.Date, Status: r.Status,
			Total: r.Total, Paid: r.Paid, Balance: bal,
		}
		out.Total = out.Total.Add(r.Total)
		out.Paid = out.Paid.Add(r.Paid)
		out.Balance = out.Balance.Add(bal)
	}
	return out, nil
}

func retention(returning, unique int) decimal.Decimal {
	if unique == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(returning)).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(unique))).Round(2)
}

// fillMonths devuelve exactamente n meses desde start; los que no vienen del repositorio van en cero.
func fillMonths(points []entity.SeriesPoint, start time.Time, n int) []entity.SeriesPoint {
	byMonth := make(map[string]entity.SeriesPoint, len(points))
	for _, p := range points {
		byMonth[p.Period.UTC().Format("2006-01")] = p
	}
	out := make([]entity.SeriesPoint, n)
	for i := 0; i < n; i++ {
		m := start.AddDate(0, i, 0)
		p, ok := byMonth[m.Format("2006-01")]
		if !ok {
			p = entity.SeriesPoint{Total: decimal.Zero}
		}
		p.Period = m
		out[i] = p
	}
	return out
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("reportes: %s: %w", what, err)
	}
	return nil
}

// monthLabel etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
