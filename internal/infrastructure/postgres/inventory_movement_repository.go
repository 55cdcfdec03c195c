package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (id, company_id, product_id, warehouse_id, quantity, type, reference_type, reference_id, executed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.CompanyID, m.ProductID, m.WarehouseID, m.Quantity, m.Type,
		m.ReferenceType, m.ReferenceID, nullIfEmpty(m.ExecutedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// List historial filtrado, más recientes primero.
func (r *InventoryMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	b := psql.Select("id", "company_id", "product_id", "warehouse_id", "quantity", "type",
		"reference_type", "reference_id", "executed_by", "created_at").
		From("inventory_movements").
		OrderBy("created_at DESC", "id")
	b = companyScope(b, "company_id", f.CompanyID)
	if f.ProductID != "" {
		b = b.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.WarehouseID != "" {
		b = b.Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	}
	if f.ReferenceID != "" {
		b = b.Where(squirrel.Eq{"reference_id": f.ReferenceID})
	}
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	sql, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var executedBy *string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.WarehouseID, &m.Quantity, &m.Type,
			&m.ReferenceType, &m.ReferenceID, &executedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.ExecutedBy = derefString(executedBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
