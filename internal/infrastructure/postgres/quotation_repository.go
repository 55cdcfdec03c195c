package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.QuotationRepository = (*QuotationRepo)(nil)

// QuotationRepo cotizaciones (cabecera en quotations, ítems en document_items).
type QuotationRepo struct {
	q Querier
}

func NewQuotationRepository(q Querier) *QuotationRepo {
	return &QuotationRepo{q: q}
}

var quotationColumns = []string{
	"id", "company_id", "client_id", "warehouse_id", "seller_id", "payment_method",
	"date", "status", "subtotal", "itbis", "total", "created_at",
}

func scanQuotation(row pgx.Row) (*entity.Quotation, error) {
	var q entity.Quotation
	var warehouseID, sellerID, method *string
	err := row.Scan(&q.ID, &q.CompanyID, &q.ClientID, &warehouseID, &sellerID, &method,
		&q.Date, &q.Status, &q.Subtotal, &q.ITBIS, &q.Total, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.WarehouseID, q.SellerID, q.PaymentMethod = derefString(warehouseID), derefString(sellerID), derefString(method)
	return &q, nil
}

func (r *QuotationRepo) Create(ctx context.Context, q *entity.Quotation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO quotations (id, company_id, client_id, warehouse_id, seller_id, payment_method, date, status, subtotal, itbis, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		q.ID, q.CompanyID, q.ClientID, nullIfEmpty(q.WarehouseID), nullIfEmpty(q.SellerID), nullIfEmpty(q.PaymentMethod),
		q.Date, q.Status, q.Subtotal, q.ITBIS, q.Total, q.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Resource: "cotización", Value: q.ID}
		}
		return fmt.Errorf("insert quotation: %w", err)
	}
	return insertItems(ctx, r.q, docQuotation, q.ID, q.Items)
}

func (r *QuotationRepo) get(ctx context.Context, companyID, id string, forUpdate bool) (*entity.Quotation, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b := companyScope(psql.Select(quotationColumns...).From("quotations").Where(squirrel.Eq{"id": id}), "company_id", companyID)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	q, err := scanQuotation(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	items, err := loadItems(ctx, r.q, docQuotation, []string{q.ID})
	if err != nil {
		return nil, err
	}
	q.Items = items[q.ID]
	return q, nil
}

func (r *QuotationRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Quotation, error) {
	return r.get(ctx, companyID, id, false)
}

// GetForUpdate bloquea la cabecera: dos conversiones simultáneas se serializan aquí.
func (r *QuotationRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Quotation, error) {
	return r.get(ctx, companyID, id, true)
}

func (r *QuotationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE quotations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "cotización", ID: id}
	}
	return nil
}

// ExpireBefore un solo UPDATE; las filas ya bloqueadas por una conversión esperan a que termine.
func (r *QuotationRepo) ExpireBefore(ctx context.Context, companyID string, cutoff time.Time) (int, error) {
	b := psql.Update("quotations").
		Set("status", entity.QuotationVencida).
		Where(squirrel.Eq{"status": entity.QuotationVigente}).
		Where(squirrel.Lt{"date": cutoff})
	if companyID != "" {
		b = b.Where(squirrel.Eq{"company_id": companyID})
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("expire quotations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *QuotationRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Quotation, error) {
	b := documentList(psql.Select(quotationColumns...).From("quotations"), f.CompanyID, f.ClientID, f.Status)
	sql, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	var list []*entity.Quotation
	var ids []string
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		list = append(list, q)
		ids = append(ids, q.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.q, docQuotation, ids)
	if err != nil {
		return nil, err
	}
	for _, q := range list {
		q.Items = items[q.ID]
	}
	return list, nil
}
