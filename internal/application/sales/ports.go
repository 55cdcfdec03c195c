package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

// StockDebiter descuenta inventario usando los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
type StockDebiter interface {
	DebitInTx(
		ctx context.Context,
		r repository.TxRepos,
		companyID, warehouseID string,
		lines []inventory.Debit,
		referenceType, referenceID, actor string,
		now time.Time,
	) error
}

// NumberAllocator asigna el NCF dentro de la transacción de facturación.
type NumberAllocator interface {
	AllocateInTx(ctx context.Context, r repository.TxRepos, companyID string, series entity.NCFSeries) (string, error)
}

// LowStockChecker chequeo perezoso de stock bajo en rutas de lectura.
type LowStockChecker interface {
	LowStock(ctx context.Context, scope tenant.Scope) ([]entity.LowStockItem, error)
}

// InvoiceRenderer representación gráfica de la factura.
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, inv *entity.Invoice, company *entity.Company, client *entity.Client, paid decimal.Decimal) ([]byte, error)
}
