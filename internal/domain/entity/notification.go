package entity

import "time"

// StockNotification aviso de stock bajo. A lo sumo una abierta por (empresa, producto).
type StockNotification struct {
	ID        string
	CompanyID string
	ProductID string
	Message   string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Open indica si el aviso sigue abierto.
func (n *StockNotification) Open() bool { return n.ClosedAt == nil }
