package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.InvoiceRepository = (*InvoiceRepo)(nil)
	_ repository.PaymentRepository = (*PaymentRepo)(nil)
)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

var invoiceColumns = []string{
	"id", "company_id", "order_id", "client_id", "ncf", "invoice_type", "payment_method",
	"date", "status", "subtotal", "itbis", "total", "created_at",
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var orderID, method *string
	var series string
	err := row.Scan(&inv.ID, &inv.CompanyID, &orderID, &inv.ClientID, &inv.NCF, &series, &method,
		&inv.Date, &inv.Status, &inv.Subtotal, &inv.ITBIS, &inv.Total, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.OrderID, inv.PaymentMethod = derefString(orderID), derefString(method)
	inv.InvoiceType = entity.NCFSeries(series)
	return &inv, nil
}

// Create persiste cabecera e ítems. Las restricciones únicas (empresa, ncf) y order_id
// se traducen a DuplicateError.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (id, company_id, order_id, client_id, ncf, invoice_type, payment_method, date, status, subtotal, itbis, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inv.ID, inv.CompanyID, nullIfEmpty(inv.OrderID), inv.ClientID, inv.NCF, string(inv.InvoiceType),
		nullIfEmpty(inv.PaymentMethod), inv.Date, inv.Status, inv.Subtotal, inv.ITBIS, inv.Total, inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "invoices_order_id_key" {
				return &domain.DuplicateError{Resource: "factura del pedido", Value: inv.OrderID}
			}
			return &domain.DuplicateError{Resource: "NCF", Value: inv.NCF}
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return insertItems(ctx, r.q, docInvoice, inv.ID, inv.Items)
}

func (r *InvoiceRepo) get(ctx context.Context, companyID, id string, forUpdate bool) (*entity.Invoice, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b := companyScope(psql.Select(invoiceColumns...).From("invoices").Where(squirrel.Eq{"id": id}), "company_id", companyID)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := loadItems(ctx, r.q, docInvoice, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return inv, nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, false)
}

// GetForUpdate bloquea la factura: los abonos concurrentes se serializan aquí.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, true)
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "factura", ID: id}
	}
	return nil
}

func (r *InvoiceRepo) ExistsNCF(ctx context.Context, companyID, ncf string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE company_id = $1 AND ncf = $2)`, companyID, ncf).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists ncf: %w", err)
	}
	return exists, nil
}

func (r *InvoiceRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Invoice, error) {
	b := documentList(psql.Select(invoiceColumns...).From("invoices"), f.CompanyID, f.ClientID, f.Status)
	sql, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var list []*entity.Invoice
	var ids []string
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
		ids = append(ids, inv.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.q, docInvoice, ids)
	if err != nil {
		return nil, err
	}
	for _, inv := range list {
		inv.Items = items[inv.ID]
	}
	return list, nil
}

// PaymentRepo abonos.
type PaymentRepo struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO payments (id, company_id, invoice_id, amount, method, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.CompanyID, p.InvoiceID, p.Amount, nullIfEmpty(p.Method), nullIfEmpty(p.RecordedBy), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, invoice_id, amount, method, recorded_by, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		var method, recordedBy *string
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.Amount, &method, &recordedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Method, p.RecordedBy = derefString(method), derefString(recordedBy)
		list = append(list, &p)
	}
	return list, rows.Err()
}
