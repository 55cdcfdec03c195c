package entity

import "time"

// ProductStock es el saldo autoritativo de un producto en un almacén. Stock nunca es negativo.
type ProductStock struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	Stock       int
	MinStock    int
	UpdatedAt   time.Time
}

// IsLow indica stock en o por debajo del mínimo (solo si hay mínimo configurado).
func (s *ProductStock) IsLow() bool {
	return s.MinStock > 0 && s.Stock <= s.MinStock
}

// LowStockItem fila de stock bajo con datos del producto para mostrar.
type LowStockItem struct {
	CompanyID     string `json:"company_id"`
	ProductID     string `json:"product_id"`
	ProductCode   string `json:"product_code"`
	ProductName   string `json:"product_name"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	Stock         int    `json:"stock"`
	MinStock      int    `json:"min_stock"`
}
