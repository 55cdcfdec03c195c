package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// MovementFilter filtros del historial de movimientos.
type MovementFilter struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	ReferenceID string
	From, To    *time.Time
	Limit       int
	Offset      int
}

// InventoryMovementRepository define el puerto de persistencia para movimientos (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	List(ctx context.Context, f MovementFilter) ([]*entity.InventoryMovement, error)
}

// NotificationRepository avisos de stock bajo.
type NotificationRepository interface {
	// GetOpen devuelve el aviso abierto de (empresa, producto) o nil.
	GetOpen(ctx context.Context, companyID, productID string) (*entity.StockNotification, error)
	ListOpen(ctx context.Context, companyID string) ([]*entity.StockNotification, error)
	Create(ctx context.Context, n *entity.StockNotification) error
	Close(ctx context.Context, id string, at time.Time) error
}
