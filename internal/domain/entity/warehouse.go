package entity

import "time"

// Warehouse representa un almacén o sucursal donde se guarda inventario.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
