package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo avisos de stock bajo. El índice único parcial
// stock_notifications_open_uq garantiza un solo aviso abierto por (empresa, producto).
type NotificationRepo struct {
	q Querier
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

const notificationColumns = `id, company_id, product_id, message, created_at, closed_at`

func (r *NotificationRepo) GetOpen(ctx context.Context, companyID, productID string) (*entity.StockNotification, error) {
	var n entity.StockNotification
	err := r.q.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM stock_notifications
		WHERE company_id = $1 AND product_id = $2 AND closed_at IS NULL`, companyID, productID).
		Scan(&n.ID, &n.CompanyID, &n.ProductID, &n.Message, &n.CreatedAt, &n.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepo) ListOpen(ctx context.Context, companyID string) ([]*entity.StockNotification, error) {
	b := psql.Select(notificationColumns).From("stock_notifications").
		Where("closed_at IS NULL").
		OrderBy("created_at")
	sql, args, err := companyScope(b, "company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list open notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockNotification
	for rows.Next() {
		var n entity.StockNotification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.ProductID, &n.Message, &n.CreatedAt, &n.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.StockNotification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_notifications (id, company_id, product_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.CompanyID, n.ProductID, n.Message, n.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Resource: "aviso de stock", Value: n.ProductID}
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Close(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE stock_notifications SET closed_at = $2 WHERE id = $1 AND closed_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("close notification: %w", err)
	}
	return nil
}
