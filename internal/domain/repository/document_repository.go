package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// DocumentFilter filtros de listados de documentos comerciales.
type DocumentFilter struct {
	CompanyID string
	ClientID  string
	Status    string
	Limit     int
	Offset    int
}

// QuotationRepository persistencia de cotizaciones (cabecera + ítems).
type QuotationRepository interface {
	Create(ctx context.Context, q *entity.Quotation) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Quotation, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Quotation, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// ExpireBefore pasa a vencida toda cotización vigente con fecha anterior a cutoff.
	ExpireBefore(ctx context.Context, companyID string, cutoff time.Time) (int, error)
	List(ctx context.Context, f DocumentFilter) ([]*entity.Quotation, error)
}

// OrderRepository persistencia de pedidos.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	List(ctx context.Context, f DocumentFilter) ([]*entity.Order, error)
}

// InvoiceRepository persistencia de facturas. El NCF es único por empresa.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ExistsNCF(ctx context.Context, companyID, ncf string) (bool, error)
	List(ctx context.Context, f DocumentFilter) ([]*entity.Invoice, error)
}

// PaymentRepository abonos a facturas.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
}
