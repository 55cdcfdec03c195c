package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos. orders.quotation_id es único: una cotización genera a lo sumo un pedido.
type OrderRepo struct {
	q Querier
}

func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

var orderColumns = []string{
	"id", "company_id", "quotation_id", "client_id", "warehouse_id", "seller_id", "customer_po",
	"payment_method", "date", "delivery_date", "status", "subtotal", "itbis", "total", "created_at",
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var quotationID, warehouseID, sellerID, po, method *string
	err := row.Scan(&o.ID, &o.CompanyID, &quotationID, &o.ClientID, &warehouseID, &sellerID, &po,
		&method, &o.Date, &o.DeliveryDate, &o.Status, &o.Subtotal, &o.ITBIS, &o.Total, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.QuotationID, o.WarehouseID, o.SellerID = derefString(quotationID), derefString(warehouseID), derefString(sellerID)
	o.CustomerPO, o.PaymentMethod = derefString(po), derefString(method)
	return &o, nil
}

func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, company_id, quotation_id, client_id, warehouse_id, seller_id, customer_po, payment_method, date, delivery_date, status, subtotal, itbis, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.CompanyID, nullIfEmpty(o.QuotationID), o.ClientID, nullIfEmpty(o.WarehouseID), nullIfEmpty(o.SellerID),
		nullIfEmpty(o.CustomerPO), nullIfEmpty(o.PaymentMethod), o.Date, o.DeliveryDate, o.Status,
		o.Subtotal, o.ITBIS, o.Total, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Resource: "pedido de la cotización", Value: o.QuotationID}
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return insertItems(ctx, r.q, docOrder, o.ID, o.Items)
}

func (r *OrderRepo) get(ctx context.Context, companyID, id string, forUpdate bool) (*entity.Order, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b := companyScope(psql.Select(orderColumns...).From("orders").Where(squirrel.Eq{"id": id}), "company_id", companyID)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := loadItems(ctx, r.q, docOrder, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *OrderRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.get(ctx, companyID, id, false)
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.get(ctx, companyID, id, true)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "pedido", ID: id}
	}
	return nil
}

func (r *OrderRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Order, error) {
	b := documentList(psql.Select(orderColumns...).From("orders"), f.CompanyID, f.ClientID, f.Status)
	sql, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []*entity.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.q, docOrder, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		o.Items = items[o.ID]
	}
	return list, nil
}
