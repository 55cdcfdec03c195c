package dto

import (
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// AdjustStockRequest body para POST /api/inventory/movements.
// En ajuste Quantity es el saldo final; en entrada y salida es la cantidad a mover.
type AdjustStockRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=entrada salida ajuste"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	FromWarehouseID string `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Quantity        int    `json:"quantity" validate:"gt=0"`
}

// SetMinStockRequest body para PUT /api/inventory/stock/min.
type SetMinStockRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	MinStock    int    `json:"min_stock" validate:"gte=0"`
}

// MovementResponse movimiento del kardex.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Quantity      int       `json:"quantity"`
	Type          string    `json:"type"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	ExecutedBy    string    `json:"executed_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementFromEntity mapea la entidad.
func MovementFromEntity(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Quantity:      m.Quantity,
		Type:          m.Type,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		ExecutedBy:    m.ExecutedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// MovementsFromEntity mapea una lista.
func MovementsFromEntity(list []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// StockResponse saldo de un producto en un almacén.
type StockResponse struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	Low         bool      `json:"low"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockFromEntity mapea la entidad.
func StockFromEntity(s *entity.ProductStock) StockResponse {
	return StockResponse{
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		Stock:       s.Stock,
		MinStock:    s.MinStock,
		Low:         s.IsLow(),
		UpdatedAt:   s.UpdatedAt,
	}
}
