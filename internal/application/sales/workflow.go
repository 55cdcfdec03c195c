// Package sales implementa el flujo cotización → pedido → factura → abono.
// Cada transición corre en una sola transacción; avisos y correos salen después del commit.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	domsales "github.com/jhoicas/Ventas-api/internal/domain/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/Ventas-api/internal/application/sales")

// Settings parámetros del flujo (config Workflow).
type Settings struct {
	TaxRate  decimal.Decimal
	Validity time.Duration
}

// DefaultSettings ITBIS 18% y 30 días de vigencia.
func DefaultSettings() Settings {
	return Settings{TaxRate: decimal.RequireFromString("0.18"), Validity: 30 * 24 * time.Hour}
}

// WorkflowUseCase máquina de estados de documentos comerciales.
type WorkflowUseCase struct {
	txRunner  ports.TxRunner
	repos     repository.TxRepos // lecturas fuera de transacción
	stock     StockDebiter
	allocator NumberAllocator
	lowStock  LowStockChecker
	renderer  InvoiceRenderer
	notifier  ports.Notifier
	mailer    ports.Mailer
	settings  Settings
	log       *logger.Logger
	now       func() time.Time
}

// NewWorkflowUseCase construye el caso de uso. lowStock y renderer pueden ser nil.
func NewWorkflowUseCase(
	txRunner ports.TxRunner,
	repos repository.TxRepos,
	stock StockDebiter,
	allocator NumberAllocator,
	lowStock LowStockChecker,
	renderer InvoiceRenderer,
	notifier ports.Notifier,
	mailer ports.Mailer,
	settings Settings,
	log *logger.Logger,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		txRunner:  txRunner,
		repos:     repos,
		stock:     stock,
		allocator: allocator,
		lowStock:  lowStock,
		renderer:  renderer,
		notifier:  notifier,
		mailer:    mailer,
		settings:  settings,
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *WorkflowUseCase) WithClock(now func() time.Time) *WorkflowUseCase {
	uc.now = now
	return uc
}

// QuotationLine línea pedida por el vendedor.
type QuotationLine struct {
	ProductID       string
	Quantity        int
	DiscountPercent decimal.Decimal
}

// CreateQuotationInput datos de una cotización nueva.
type CreateQuotationInput struct {
	ClientID      string
	WarehouseID   string
	PaymentMethod string
	Lines         []QuotationLine
}

// ConvertQuotationInput almacén de despacho (vacío = el de la cotización) y orden de compra del cliente.
type ConvertQuotationInput struct {
	WarehouseID  string
	CustomerPO   string
	DeliveryDate *time.Time
}

// RecordPaymentInput abono a una factura.
type RecordPaymentInput struct {
	Amount decimal.Decimal
	Method string
}

// CreateQuotation arma la cotización con copias de los productos y totales calculados.
// Líneas con producto inválido o cantidad <= 0 se omiten.
func (uc *WorkflowUseCase) CreateQuotation(ctx context.Context, scope tenant.Scope, in CreateQuotationInput) (*entity.Quotation, error) {
	ctx, span := tracer.Start(ctx, "sales.CreateQuotation", trace.WithAttributes(attribute.String("company_id", scope.CompanyID)))
	defer span.End()

	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	client, err := uc.repos.Catalog.GetClient(ctx, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.NewValidationError("client_id", "cliente no encontrado")
	}
	wh, err := uc.repos.Catalog.GetWarehouse(ctx, companyID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.NewValidationError("warehouse_id", "almacén no encontrado")
	}

	var ids []string
	var lines []QuotationLine
	for _, l := range in.Lines {
		if _, err := uuid.Parse(l.ProductID); err != nil || l.Quantity <= 0 {
			continue
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.NewValidationError("discount", "el descuento debe estar entre 0 y 100")
		}
		ids = append(ids, l.ProductID)
		lines = append(lines, l)
	}
	products, err := uc.repos.Catalog.ResolveProducts(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []entity.LineItem
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		items = append(items, domsales.SnapshotLine(p, l.Quantity, l.DiscountPercent))
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("lines", "la cotización no tiene líneas válidas")
	}

	now := uc.now()
	tot := domsales.ComputeTotals(items, uc.settings.TaxRate)
	q := &entity.Quotation{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		ClientID:      client.ID,
		WarehouseID:   wh.ID,
		SellerID:      scope.UserID,
		PaymentMethod: in.PaymentMethod,
		Date:          now,
		Status:        entity.QuotationVigente,
		Subtotal:      tot.Subtotal,
		ITBIS:         tot.ITBIS,
		Total:         tot.Total,
		Items:         items,
		CreatedAt:     now,
	}
	if err := uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		return r.Quotations.Create(ctx, q)
	}); err != nil {
		return nil, err
	}
	return q, nil
}

// ExpireStaleQuotations pasa a vencida toda cotización vigente fuera de su ventana. Idempotente.
func (uc *WorkflowUseCase) ExpireStaleQuotations(ctx context.Context, scope tenant.Scope) (int, error) {
	cutoff := uc.now().Add(-uc.settings.Validity)
	n, err := uc.repos.Quotations.ExpireBefore(ctx, scope.Filter(), cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.log.Tenant(scope.Filter()).Info().Int("count", n).Msg("cotizaciones vencidas")
	}
	return n, nil
}

// ConvertQuotationToOrder crea el pedido, descuenta el inventario del almacén y marca la cotización
// como convertida. Falla completa si alguna línea no tiene stock.
func (uc *WorkflowUseCase) ConvertQuotationToOrder(ctx context.Context, scope tenant.Scope, quotationID string, in ConvertQuotationInput) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "sales.ConvertQuotationToOrder", trace.WithAttributes(attribute.String("quotation_id", quotationID)))
	defer span.End()

	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	var order *entity.Order
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		q, err := r.Quotations.GetForUpdate(ctx, companyID, quotationID)
		if err != nil {
			return err
		}
		if q == nil {
			return &domain.NotFoundError{Resource: "cotización", ID: quotationID}
		}
		switch {
		case q.Status == entity.QuotationConvertida:
			return fmt.Errorf("cotización %s ya fue convertida: %w", q.ID, domain.ErrConflict)
		case q.Status == entity.QuotationVencida, q.IsExpired(now, uc.settings.Validity):
			return &domain.ExpiredError{QuotationID: q.ID, ExpiredAt: q.ExpiresAt(uc.settings.Validity)}
		}

		warehouseID := in.WarehouseID
		if warehouseID == "" {
			warehouseID = q.WarehouseID
		}
		wh, err := r.Catalog.GetWarehouse(ctx, companyID, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NewValidationError("warehouse_id", "almacén no encontrado")
		}

		order = &entity.Order{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			QuotationID:   q.ID,
			ClientID:      q.ClientID,
			WarehouseID:   wh.ID,
			SellerID:      q.SellerID,
			CustomerPO:    in.CustomerPO,
			PaymentMethod: q.PaymentMethod,
			Date:          now,
			DeliveryDate:  in.DeliveryDate,
			Status:        entity.OrderPendiente,
			Subtotal:      q.Subtotal,
			ITBIS:         q.ITBIS,
			Total:         q.Total,
			Items:         domsales.CopyLines(q.Items),
			CreatedAt:     now,
		}
		debits := make([]inventory.Debit, len(order.Items))
		for i, it := range order.Items {
			debits[i] = inventory.Debit{ProductID: it.ProductID, ProductName: it.Name, Quantity: it.Quantity}
		}
		if err := uc.stock.DebitInTx(ctx, r, companyID, wh.ID, debits, entity.ReferenceOrder, order.ID, scope.UserID, now); err != nil {
			return err
		}
		if err := r.Orders.Create(ctx, order); err != nil {
			return err
		}
		return r.Quotations.UpdateStatus(ctx, q.ID, entity.QuotationConvertida)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.notify(ctx, companyID, fmt.Sprintf("Pedido %s creado desde la cotización %s", short(order.ID), short(quotationID)))
	return order, nil
}

// ConvertOrderToInvoice asigna el NCF según el tipo de cliente, copia las líneas y marca el pedido
// como Entregado, todo en la misma transacción.
func (uc *WorkflowUseCase) ConvertOrderToInvoice(ctx context.Context, scope tenant.Scope, orderID string) (*entity.Invoice, error) {
	ctx, span := tracer.Start(ctx, "sales.ConvertOrderToInvoice", trace.WithAttributes(attribute.String("order_id", orderID)))
	defer span.End()

	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	var inv *entity.Invoice
	var client *entity.Client
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		o, err := r.Orders.GetForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return &domain.NotFoundError{Resource: "pedido", ID: orderID}
		}
		if o.Status == entity.OrderEntregado {
			return fmt.Errorf("pedido %s ya fue facturado: %w", o.ID, domain.ErrConflict)
		}
		client, err = r.Catalog.GetClient(ctx, companyID, o.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.NewValidationError("client_id", "cliente no encontrado")
		}
		if !client.IsFinalConsumer && client.Identifier == "" {
			return domain.NewValidationError("client_id", "el cliente con crédito fiscal debe tener RNC o cédula")
		}

		series := client.Series()
		ncf, err := uc.allocator.AllocateInTx(ctx, r, companyID, series)
		if err != nil {
			return err
		}
		inv = &entity.Invoice{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			OrderID:       o.ID,
			ClientID:      o.ClientID,
			NCF:           ncf,
			InvoiceType:   series,
			PaymentMethod: o.PaymentMethod,
			Date:          now,
			Status:        entity.InvoicePendiente,
			Subtotal:      o.Subtotal,
			ITBIS:         o.ITBIS,
			Total:         o.Total,
			Items:         domsales.CopyLines(o.Items),
			CreatedAt:     now,
		}
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return r.Orders.UpdateStatus(ctx, o.ID, entity.OrderEntregado)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("ncf", inv.NCF))

	uc.notify(ctx, companyID, fmt.Sprintf("Factura %s emitida (total %s)", inv.NCF, inv.Total.StringFixed(2)))
	if client.Email != "" {
		html := fmt.Sprintf("<p>Estimado(a) %s,</p><p>Se emitió la factura <b>%s</b> por RD$ %s.</p>",
			client.Name, inv.NCF, inv.Total.StringFixed(2))
		if err := uc.mailer.SendEmail(ctx, client.Email, "Factura "+inv.NCF, html); err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo enviar la factura por correo")
		}
	}
	return inv, nil
}

// RecordPayment registra un abono; la factura pasa a Pagada cuando la suma cubre el total.
// Un sobrepago se acepta y queda registrado tal cual.
func (uc *WorkflowUseCase) RecordPayment(ctx context.Context, scope tenant.Scope, invoiceID string, in RecordPaymentInput) (*entity.Payment, error) {
	ctx, span := tracer.Start(ctx, "sales.RecordPayment", trace.WithAttributes(attribute.String("invoice_id", invoiceID)))
	defer span.End()

	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "el monto debe ser mayor que cero")
	}
	var p *entity.Payment
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		inv, err := r.Invoices.GetForUpdate(ctx, companyID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return &domain.NotFoundError{Resource: "factura", ID: invoiceID}
		}
		p = &entity.Payment{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			InvoiceID:  inv.ID,
			Amount:     in.Amount.Round(2),
			Method:     in.Method,
			RecordedBy: scope.UserID,
			CreatedAt:  uc.now(),
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		paid, err := r.Payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoicePagada && paid.GreaterThanOrEqual(inv.Total) {
			return r.Invoices.UpdateStatus(ctx, inv.ID, entity.InvoicePagada)
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return p, nil
}

func (uc *WorkflowUseCase) notify(ctx context.Context, companyID, msg string) {
	if err := uc.notifier.Send(ctx, companyID, msg); err != nil {
		uc.log.Tenant(companyID).Warn().Err(err).Msg("no se pudo enviar aviso")
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
