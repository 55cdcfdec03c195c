package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Stock es un espejo del total por bodega; la fuente de verdad es ProductStock.
type Product struct {
	ID        string
	CompanyID string
	Code      string // código único por empresa
	Reference string
	Name      string
	Unit      string
	Price     decimal.Decimal
	Category  string
	HasITBIS  bool
	Stock     int
	MinStock  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
