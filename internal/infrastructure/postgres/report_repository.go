package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo agregados de ventas. Cada método arma la ventana filtrada como CTE "f"
// y agrega sobre ella en una sola consulta.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador; normalmente sobre el pool.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// filtered facturas de la ventana.
func filtered(f repository.ReportFilter) squirrel.SelectBuilder {
	b := psql.Select(
		"i.id", "i.company_id", "i.client_id", "i.ncf", "i.invoice_type",
		"COALESCE(i.payment_method, '') AS payment_method",
		"i.date", "i.status", "i.subtotal", "i.itbis", "i.total",
	).From("invoices i")
	b = companyScope(b, "i.company_id", f.CompanyID)
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"i.date": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"i.date": *f.To})
	}
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"i.status": f.Status})
	}
	if f.ClientID != "" {
		b = b.Where(squirrel.Eq{"i.client_id": f.ClientID})
	}
	if f.Category != "" {
		b = b.Where(`EXISTS (SELECT 1 FROM document_items di
			WHERE di.document_type = 'invoice' AND di.document_id = i.id AND di.category = ?)`, f.Category)
	}
	return b
}

// withWindow antepone la CTE f a tail. extra se agrega a los argumentos y se
// referencia en tail con next(): $n+1, $n+2...
func withWindow(f repository.ReportFilter, tail func(next func(v any) string) string) (string, []any, error) {
	sql, args, err := filtered(f).ToSql()
	if err != nil {
		return "", nil, err
	}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	return "WITH f AS (" + sql + ") " + tail(next), args, nil
}

func plain(s string) func(func(any) string) string {
	return func(func(any) string) string { return s }
}

func (r *ReportRepo) Summary(ctx context.Context, f repository.ReportFilter) (*entity.ReportSummary, error) {
	sql, args, err := withWindow(f, plain(`
		SELECT COALESCE(SUM(total), 0)            AS total_sales,
		       COUNT(*)                           AS invoice_count,
		       COUNT(DISTINCT client_id)          AS unique_clients,
		       (SELECT COUNT(*) FROM (
		            SELECT client_id FROM f GROUP BY client_id HAVING COUNT(*) > 1
		       ) rc)                              AS returning_clients,
		       COALESCE(ROUND(AVG(total), 2), 0)  AS avg_ticket
		FROM f`))
	if err != nil {
		return nil, err
	}
	var s entity.ReportSummary
	if err := pgxscan.Get(ctx, r.q, &s, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.Summary: %w", err)
	}
	return &s, nil
}

func (r *ReportRepo) AvgTicket(ctx context.Context, f repository.ReportFilter) (decimal.Decimal, error) {
	sql, args, err := withWindow(f, plain(`SELECT COALESCE(ROUND(AVG(total), 2), 0) FROM f`))
	if err != nil {
		return decimal.Zero, err
	}
	var avg decimal.Decimal
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&avg); err != nil {
		return decimal.Zero, fmt.Errorf("reports.AvgTicket: %w", err)
	}
	return avg, nil
}

func (r *ReportRepo) breakdown(ctx context.Context, f repository.ReportFilter, column string) ([]entity.Breakdown, error) {
	sql, args, err := withWindow(f, plain(fmt.Sprintf(`
		SELECT %[1]s AS key, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total
		FROM f GROUP BY %[1]s ORDER BY %[1]s`, column)))
	if err != nil {
		return nil, err
	}
	var out []entity.Breakdown
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.breakdown(%s): %w", column, err)
	}
	return out, nil
}

func (r *ReportRepo) StatusBreakdown(ctx context.Context, f repository.ReportFilter) ([]entity.Breakdown, error) {
	return r.breakdown(ctx, f, "status")
}

func (r *ReportRepo) PaymentMethodBreakdown(ctx context.Context, f repository.ReportFilter) ([]entity.Breakdown, error) {
	return r.breakdown(ctx, f, "payment_method")
}

// categoryTail agregado por categoría de ítem; con filtro de categoría solo cuentan sus ítems.
func categoryTail(f repository.ReportFilter, selectList, suffix string) func(func(any) string) string {
	return func(next func(any) string) string {
		cond := ""
		if f.Category != "" {
			cond = " AND di.category = " + next(f.Category)
		}
		return `
		SELECT ` + selectList + `
		FROM f
		JOIN document_items di ON di.document_type = 'invoice' AND di.document_id = f.id` + cond + `
		GROUP BY di.category ` + suffix
	}
}

func (r *ReportRepo) CategoryStats(ctx context.Context, f repository.ReportFilter) ([]entity.CategoryStat, error) {
	sql, args, err := withWindow(f, categoryTail(f, `
		       COALESCE(di.category, '')                              AS category,
		       COUNT(*)                                               AS count,
		       SUM(di.quantity)                                       AS quantity,
		       ROUND(AVG(di.unit_price * di.quantity - di.discount), 2) AS avg,
		       SUM(di.unit_price * di.quantity - di.discount)         AS sum`,
		`ORDER BY sum DESC, category`))
	if err != nil {
		return nil, err
	}
	var out []entity.CategoryStat
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.CategoryStats: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) series(ctx context.Context, f repository.ReportFilter, unit string) ([]entity.SeriesPoint, error) {
	sql, args, err := withWindow(f, plain(fmt.Sprintf(`
		SELECT date_trunc('%s', date AT TIME ZONE 'UTC') AS period,
		       COUNT(*)                                AS count,
		       COALESCE(SUM(total), 0)                 AS total
		FROM f GROUP BY period ORDER BY period`, unit)))
	if err != nil {
		return nil, err
	}
	var out []entity.SeriesPoint
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.series(%s): %w", unit, err)
	}
	return out, nil
}

func (r *ReportRepo) DailySeries(ctx context.Context, f repository.ReportFilter) ([]entity.SeriesPoint, error) {
	return r.series(ctx, f, "day")
}

func (r *ReportRepo) MonthlySeries(ctx context.Context, f repository.ReportFilter) ([]entity.SeriesPoint, error) {
	return r.series(ctx, f, "month")
}

func (r *ReportRepo) TopClients(ctx context.Context, f repository.ReportFilter, limit int) ([]entity.RankItem, error) {
	sql, args, err := withWindow(f, func(next func(any) string) string {
		return `
		SELECT f.client_id::text AS key, COALESCE(c.name, '') AS name, COUNT(*) AS count, SUM(f.total) AS total
		FROM f LEFT JOIN clients c ON c.id = f.client_id
		GROUP BY f.client_id, c.name
		ORDER BY total DESC, key
		LIMIT ` + next(limit)
	})
	if err != nil {
		return nil, err
	}
	var out []entity.RankItem
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.TopClients: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) TopCategories(ctx context.Context, f repository.ReportFilter, limit int) ([]entity.RankItem, error) {
	sql, args, err := withWindow(f, func(next func(any) string) string {
		body := categoryTail(f, `
		       COALESCE(di.category, '')                      AS key,
		       COALESCE(di.category, '')                      AS name,
		       COUNT(*)                                       AS count,
		       SUM(di.unit_price * di.quantity - di.discount) AS total`,
			`ORDER BY total DESC, key`)(next)
		return body + " LIMIT " + next(limit)
	})
	if err != nil {
		return nil, err
	}
	var out []entity.RankItem
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.TopCategories: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) CountInvoices(ctx context.Context, f repository.ReportFilter) (int, error) {
	sql, args, err := withWindow(f, plain(`SELECT COUNT(*) FROM f`))
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("reports.CountInvoices: %w", err)
	}
	return n, nil
}

const invoiceRowSelect = `
		SELECT f.id, f.company_id, f.ncf, f.invoice_type, f.date, f.client_id,
		       COALESCE(c.name, '') AS client_name, f.status, f.payment_method,
		       f.subtotal, f.itbis, f.total
		FROM f LEFT JOIN clients c ON c.id = f.client_id
		ORDER BY f.date DESC, f.id`

func (r *ReportRepo) ListInvoices(ctx context.Context, f repository.ReportFilter, limit, offset int) ([]entity.InvoiceRow, error) {
	sql, args, err := withWindow(f, func(next func(any) string) string {
		return invoiceRowSelect + " LIMIT " + next(limit) + " OFFSET " + next(offset)
	})
	if err != nil {
		return nil, err
	}
	var out []entity.InvoiceRow
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.ListInvoices: %w", err)
	}
	return out, nil
}

// StreamInvoices escanea fila a fila sin cargar el resultado completo.
func (r *ReportRepo) StreamInvoices(ctx context.Context, f repository.ReportFilter, fn func(entity.InvoiceRow) error) error {
	sql, args, err := withWindow(f, plain(invoiceRowSelect))
	if err != nil {
		return err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("reports.StreamInvoices: %w", err)
	}
	defer rows.Close()
	rs := pgxscan.NewRowScanner(rows)
	for rows.Next() {
		var row entity.InvoiceRow
		if err := rs.Scan(&row); err != nil {
			return fmt.Errorf("reports.StreamInvoices scan: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *ReportRepo) Statement(ctx context.Context, companyID, clientID string) ([]entity.StatementRow, error) {
	if !isUUID(clientID) {
		return nil, nil
	}
	b := psql.Select(
		"i.id AS invoice_id", "i.ncf", "i.date", "i.status", "i.total",
		"COALESCE(SUM(p.amount), 0) AS paid",
	).From("invoices i").
		LeftJoin("payments p ON p.invoice_id = i.id").
		Where(squirrel.Eq{"i.client_id": clientID}).
		GroupBy("i.id").
		OrderBy("i.date", "i.id")
	sql, args, err := companyScope(b, "i.company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	var out []entity.StatementRow
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("reports.Statement: %w", err)
	}
	return out, nil
}
