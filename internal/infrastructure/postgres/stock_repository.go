package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockSelect = `
	SELECT company_id, product_id, warehouse_id, stock, min_stock, updated_at
	FROM product_stock WHERE product_id = $1 AND warehouse_id = $2`

func (r *StockRepo) get(ctx context.Context, query, productID, warehouseID string) (*entity.ProductStock, error) {
	var s entity.ProductStock
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.CompanyID, &s.ProductID, &s.WarehouseID, &s.Stock, &s.MinStock, &s.UpdatedAt,
	)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	// sin fila: saldo cero con la empresa del producto
	zero := &entity.ProductStock{ProductID: productID, WarehouseID: warehouseID}
	err = r.q.QueryRow(ctx, `SELECT company_id FROM products WHERE id = $1`, productID).Scan(&zero.CompanyID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get stock company: %w", err)
	}
	return zero, nil
}

// Get obtiene el saldo actual de un producto en un almacén.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.ProductStock, error) {
	return r.get(ctx, stockSelect, productID, warehouseID)
}

// stockEnsure crea la fila en cero si falta, para que siempre haya algo que bloquear.
// No inserta nada si el producto o el almacén no existen.
const stockEnsure = `
	INSERT INTO product_stock (company_id, product_id, warehouse_id, stock, min_stock, updated_at)
	SELECT p.company_id, p.id, w.id, 0, 0, now()
	FROM products p JOIN warehouses w ON w.id = $2
	WHERE p.id = $1
	ON CONFLICT (product_id, warehouse_id) DO NOTHING`

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
// Primero asegura la fila: sin ella dos transacciones leerían cero a la vez y
// la segunda pisaría el saldo de la primera en Upsert.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.ProductStock, error) {
	if _, err := r.q.Exec(ctx, stockEnsure, productID, warehouseID); err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	return r.get(ctx, stockSelect+` FOR UPDATE`, productID, warehouseID)
}

// Upsert inserta o actualiza el saldo (por producto y almacén).
func (r *StockRepo) Upsert(ctx context.Context, s *entity.ProductStock) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_stock (company_id, product_id, warehouse_id, stock, min_stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET stock = EXCLUDED.stock, min_stock = EXCLUDED.min_stock, updated_at = now()`,
		s.CompanyID, s.ProductID, s.WarehouseID, s.Stock, s.MinStock)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// SyncProductMirror products.stock = suma de saldos del producto.
func (r *StockRepo) SyncProductMirror(ctx context.Context, productID string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE products
		SET stock = COALESCE((SELECT SUM(stock) FROM product_stock WHERE product_id = $1), 0),
		    updated_at = now()
		WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("sync product stock: %w", err)
	}
	return nil
}

// ListLow saldos en o por debajo del mínimo configurado.
func (r *StockRepo) ListLow(ctx context.Context, companyID string) ([]entity.LowStockItem, error) {
	b := psql.Select(
		"ps.company_id", "ps.product_id", "p.code", "p.name", "ps.warehouse_id", "w.name",
		"ps.stock", "ps.min_stock",
	).
		From("product_stock ps").
		Join("products p ON p.id = ps.product_id").
		Join("warehouses w ON w.id = ps.warehouse_id").
		Where("ps.min_stock > 0 AND ps.stock <= ps.min_stock").
		OrderBy("p.name", "ps.warehouse_id")
	sql, args, err := companyScope(b, "ps.company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var out []entity.LowStockItem
	for rows.Next() {
		var it entity.LowStockItem
		if err := rows.Scan(&it.CompanyID, &it.ProductID, &it.ProductCode, &it.ProductName,
			&it.WarehouseID, &it.WarehouseName, &it.Stock, &it.MinStock); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
