package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// CreateQuotationRequest body para POST /api/quotations.
type CreateQuotationRequest struct {
	ClientID      string                 `json:"client_id" validate:"required"`
	WarehouseID   string                 `json:"warehouse_id" validate:"required"`
	PaymentMethod string                 `json:"payment_method"`
	Items         []QuotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

// QuotationItemRequest línea pedida; el precio sale del catálogo.
// Líneas con producto desconocido o cantidad <= 0 se descartan al cotizar.
type QuotationItemRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// ConvertQuotationRequest body para POST /api/quotations/:id/convert.
type ConvertQuotationRequest struct {
	WarehouseID  string     `json:"warehouse_id,omitempty"`
	CustomerPO   string     `json:"customer_po,omitempty" validate:"max=100"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

// RecordPaymentRequest body para POST /api/invoices/:id/payments.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required"`
}

// LineItemDTO ítem de cotización, pedido o factura.
type LineItemDTO struct {
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Reference string          `json:"reference,omitempty"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	Category  string          `json:"category,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	HasITBIS  bool            `json:"has_itbis"`
}

func itemsFromEntity(items []entity.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, LineItemDTO{
			ProductID: it.ProductID,
			Code:      it.Code,
			Reference: it.Reference,
			Name:      it.Name,
			Unit:      it.Unit,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal(),
			HasITBIS:  it.HasITBIS,
		})
	}
	return out
}

// QuotationResponse cotización en respuestas.
type QuotationResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	ClientID      string          `json:"client_id"`
	WarehouseID   string          `json:"warehouse_id"`
	SellerID      string          `json:"seller_id"`
	PaymentMethod string          `json:"payment_method"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ITBIS         decimal.Decimal `json:"itbis"`
	Total         decimal.Decimal `json:"total"`
	Items         []LineItemDTO   `json:"items,omitempty"`
}

// QuotationFromEntity mapea la entidad.
func QuotationFromEntity(q *entity.Quotation) QuotationResponse {
	return QuotationResponse{
		ID:            q.ID,
		CompanyID:     q.CompanyID,
		ClientID:      q.ClientID,
		WarehouseID:   q.WarehouseID,
		SellerID:      q.SellerID,
		PaymentMethod: q.PaymentMethod,
		Date:          q.Date,
		Status:        q.Status,
		Subtotal:      q.Subtotal,
		ITBIS:         q.ITBIS,
		Total:         q.Total,
		Items:         itemsFromEntity(q.Items),
	}
}

// QuotationListResponse listado con el aviso de stock bajo para la pantalla.
type QuotationListResponse struct {
	Quotations []QuotationResponse   `json:"quotations"`
	LowStock   []entity.LowStockItem `json:"low_stock"`
	Page       PageResponse          `json:"page"`
}

// OrderResponse pedido en respuestas.
type OrderResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	QuotationID   string          `json:"quotation_id,omitempty"`
	ClientID      string          `json:"client_id"`
	WarehouseID   string          `json:"warehouse_id"`
	SellerID      string          `json:"seller_id"`
	CustomerPO    string          `json:"customer_po,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	Date          time.Time       `json:"date"`
	DeliveryDate  *time.Time      `json:"delivery_date,omitempty"`
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ITBIS         decimal.Decimal `json:"itbis"`
	Total         decimal.Decimal `json:"total"`
	Items         []LineItemDTO   `json:"items,omitempty"`
}

// OrderFromEntity mapea la entidad.
func OrderFromEntity(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		CompanyID:     o.CompanyID,
		QuotationID:   o.QuotationID,
		ClientID:      o.ClientID,
		WarehouseID:   o.WarehouseID,
		SellerID:      o.SellerID,
		CustomerPO:    o.CustomerPO,
		PaymentMethod: o.PaymentMethod,
		Date:          o.Date,
		DeliveryDate:  o.DeliveryDate,
		Status:        o.Status,
		Subtotal:      o.Subtotal,
		ITBIS:         o.ITBIS,
		Total:         o.Total,
		Items:         itemsFromEntity(o.Items),
	}
}

// InvoiceResponse factura en respuestas. Paid y Balance solo vienen en el detalle.
type InvoiceResponse struct {
	ID            string            `json:"id"`
	CompanyID     string            `json:"company_id"`
	OrderID       string            `json:"order_id,omitempty"`
	ClientID      string            `json:"client_id"`
	NCF           string            `json:"ncf"`
	InvoiceType   string            `json:"invoice_type"`
	PaymentMethod string            `json:"payment_method"`
	Date          time.Time         `json:"date"`
	Status        string            `json:"status"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	ITBIS         decimal.Decimal   `json:"itbis"`
	Total         decimal.Decimal   `json:"total"`
	Items         []LineItemDTO     `json:"items,omitempty"`
	Paid          *decimal.Decimal  `json:"paid,omitempty"`
	Balance       *decimal.Decimal  `json:"balance,omitempty"`
	Payments      []PaymentResponse `json:"payments,omitempty"`
}

// InvoiceFromEntity mapea la entidad.
func InvoiceFromEntity(inv *entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		OrderID:       inv.OrderID,
		ClientID:      inv.ClientID,
		NCF:           inv.NCF,
		InvoiceType:   string(inv.InvoiceType),
		PaymentMethod: inv.PaymentMethod,
		Date:          inv.Date,
		Status:        inv.Status,
		Subtotal:      inv.Subtotal,
		ITBIS:         inv.ITBIS,
		Total:         inv.Total,
		Items:         itemsFromEntity(inv.Items),
	}
}

// InvoiceWithBalance detalle con abonos y saldo pendiente.
func InvoiceWithBalance(inv *entity.Invoice, payments []*entity.Payment, paid, balance decimal.Decimal) InvoiceResponse {
	out := InvoiceFromEntity(inv)
	out.Paid = &paid
	out.Balance = &balance
	out.Payments = make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out.Payments = append(out.Payments, PaymentFromEntity(p))
	}
	return out
}

// PaymentResponse abono registrado.
type PaymentResponse struct {
	ID         string          `json:"id"`
	InvoiceID  string          `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	RecordedBy string          `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PaymentFromEntity mapea la entidad.
func PaymentFromEntity(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
	}
}
