package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por almacén+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el saldo; si no existe fila devuelve saldo cero.
	Get(ctx context.Context, productID, warehouseID string) (*entity.ProductStock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); si no existe devuelve saldo cero.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.ProductStock, error)
	Upsert(ctx context.Context, stock *entity.ProductStock) error
	// SyncProductMirror recalcula products.stock como la suma de todos los almacenes.
	SyncProductMirror(ctx context.Context, productID string) error
	ListLow(ctx context.Context, companyID string) ([]entity.LowStockItem, error)
}
