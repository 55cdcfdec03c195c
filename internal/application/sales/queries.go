package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

// QuotationList listado de cotizaciones junto al stock bajo que la pantalla muestra.
type QuotationList struct {
	Quotations []*entity.Quotation
	LowStock   []entity.LowStockItem
}

// InvoiceBalance total, abonado y pendiente de una factura.
type InvoiceBalance struct {
	Invoice  *entity.Invoice
	Payments []*entity.Payment
	Paid     decimal.Decimal
	Balance  decimal.Decimal
}

func normalize(f repository.DocumentFilter, scope tenant.Scope) repository.DocumentFilter {
	f.CompanyID = scope.Filter()
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// GetQuotation cotización dentro del alcance.
func (uc *WorkflowUseCase) GetQuotation(ctx context.Context, scope tenant.Scope, id string) (*entity.Quotation, error) {
	q, err := uc.repos.Quotations.GetByID(ctx, scope.Filter(), id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, &domain.NotFoundError{Resource: "cotización", ID: id}
	}
	return q, nil
}

// ListQuotations vence primero las cotizaciones viejas y luego lista.
func (uc *WorkflowUseCase) ListQuotations(ctx context.Context, scope tenant.Scope, f repository.DocumentFilter) (*QuotationList, error) {
	if _, err := uc.ExpireStaleQuotations(ctx, scope); err != nil {
		return nil, err
	}
	list, err := uc.repos.Quotations.List(ctx, normalize(f, scope))
	if err != nil {
		return nil, err
	}
	out := &QuotationList{Quotations: list}
	if uc.lowStock != nil {
		out.LowStock, err = uc.lowStock.LowStock(ctx, scope)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetOrder pedido dentro del alcance.
func (uc *WorkflowUseCase) GetOrder(ctx context.Context, scope tenant.Scope, id string) (*entity.Order, error) {
	o, err := uc.repos.Orders.GetByID(ctx, scope.Filter(), id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &domain.NotFoundError{Resource: "pedido", ID: id}
	}
	return o, nil
}

// ListOrders pedidos dentro del alcance.
func (uc *WorkflowUseCase) ListOrders(ctx context.Context, scope tenant.Scope, f repository.DocumentFilter) ([]*entity.Order, error) {
	return uc.repos.Orders.List(ctx, normalize(f, scope))
}

// GetInvoice factura dentro del alcance.
func (uc *WorkflowUseCase) GetInvoice(ctx context.Context, scope tenant.Scope, id string) (*entity.Invoice, error) {
	inv, err := uc.repos.Invoices.GetByID(ctx, scope.Filter(), id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &domain.NotFoundError{Resource: "factura", ID: id}
	}
	return inv, nil
}

// ListInvoices facturas dentro del alcance.
func (uc *WorkflowUseCase) ListInvoices(ctx context.Context, scope tenant.Scope, f repository.DocumentFilter) ([]*entity.Invoice, error) {
	return uc.repos.Invoices.List(ctx, normalize(f, scope))
}

// InvoiceBalance factura con sus abonos y saldo pendiente (nunca negativo).
func (uc *WorkflowUseCase) InvoiceBalance(ctx context.Context, scope tenant.Scope, id string) (*InvoiceBalance, error) {
	inv, err := uc.GetInvoice(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	payments, err := uc.repos.Payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	balance := inv.Total.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return &InvoiceBalance{Invoice: inv, Payments: payments, Paid: paid, Balance: balance}, nil
}

// RenderInvoicePDF genera el PDF de la factura. Devuelve bytes y nombre de archivo.
func (uc *WorkflowUseCase) RenderInvoicePDF(ctx context.Context, scope tenant.Scope, id string) ([]byte, string, error) {
	if uc.renderer == nil {
		return nil, "", fmt.Errorf("sales: generador de PDF no configurado")
	}
	bal, err := uc.InvoiceBalance(ctx, scope, id)
	if err != nil {
		return nil, "", err
	}
	inv := bal.Invoice
	company, err := uc.repos.Companies.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", &domain.NotFoundError{Resource: "empresa", ID: inv.CompanyID}
	}
	client, err := uc.repos.Catalog.GetClient(ctx, inv.CompanyID, inv.ClientID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
	}
	if client == nil {
		client = &entity.Client{ID: inv.ClientID, Name: "Cliente " + inv.ClientID, IsFinalConsumer: true}
	}
	pdfBytes, err := uc.renderer.RenderInvoice(ctx, inv, company, client, bal.Paid)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", inv.NCF), nil
}
