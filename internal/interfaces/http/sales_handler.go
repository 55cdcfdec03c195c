package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// SalesHandler cotizaciones, pedidos, facturas y abonos (protegido).
type SalesHandler struct {
	uc *sales.WorkflowUseCase
}

// NewSalesHandler construye el handler.
func NewSalesHandler(uc *sales.WorkflowUseCase) *SalesHandler {
	return &SalesHandler{uc: uc}
}

func documentFilter(c *fiber.Ctx) (repository.DocumentFilter, dto.PageRequest) {
	p := page(c)
	return repository.DocumentFilter{
		ClientID: c.Query("client_id"),
		Status:   c.Query("status"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}, p
}

// CreateQuotation godoc
// @Summary      Crear cotización
// @Description  Copia precio, nombre y categoría del catálogo; ITBIS y totales se calculan en el servidor.
// @Tags         quotations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateQuotationRequest  true  "cliente, almacén e ítems"
// @Success      201   {object}  dto.QuotationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/quotations [post]
func (h *SalesHandler) CreateQuotation(c *fiber.Ctx) error {
	var in dto.CreateQuotationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	lines := make([]sales.QuotationLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, sales.QuotationLine{ProductID: it.ProductID, Quantity: it.Quantity, DiscountPercent: it.DiscountPercent})
	}
	q, err := h.uc.CreateQuotation(c.UserContext(), GetScope(c), sales.CreateQuotationInput{
		ClientID:      in.ClientID,
		WarehouseID:   in.WarehouseID,
		PaymentMethod: in.PaymentMethod,
		Lines:         lines,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.QuotationFromEntity(q))
}

// ListQuotations godoc
// @Summary      Listar cotizaciones
// @Description  Vence las cotizaciones fuera de vigencia antes de listar e incluye el aviso de stock bajo.
// @Tags         quotations
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "vigente | vencida | convertida"
// @Param        client_id  query  string  false  "cliente"
// @Param        limit      query  int     false  "máximo 100"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200  {object}  dto.QuotationListResponse
// @Router       /api/quotations [get]
func (h *SalesHandler) ListQuotations(c *fiber.Ctx) error {
	f, p := documentFilter(c)
	res, err := h.uc.ListQuotations(c.UserContext(), GetScope(c), f)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.QuotationListResponse{
		Quotations: make([]dto.QuotationResponse, 0, len(res.Quotations)),
		LowStock:   res.LowStock,
		Page:       p.Response(len(res.Quotations)),
	}
	for _, q := range res.Quotations {
		out.Quotations = append(out.Quotations, dto.QuotationFromEntity(q))
	}
	return c.JSON(out)
}

// GetQuotation godoc
// @Summary      Obtener cotización
// @Tags         quotations
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  dto.QuotationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/quotations/{id} [get]
func (h *SalesHandler) GetQuotation(c *fiber.Ctx) error {
	q, err := h.uc.GetQuotation(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.QuotationFromEntity(q))
}

// ConvertQuotation godoc
// @Summary      Convertir cotización en pedido
// @Description  Descuenta stock del almacén de despacho. 422 si la cotización está vencida, 409 si falta stock.
// @Tags         quotations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                       true   "ID de la cotización"
// @Param        body  body      dto.ConvertQuotationRequest  false  "almacén, orden de compra, fecha de entrega"
// @Success      201   {object}  dto.OrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/quotations/{id}/convert [post]
func (h *SalesHandler) ConvertQuotation(c *fiber.Ctx) error {
	var in dto.ConvertQuotationRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	o, err := h.uc.ConvertQuotationToOrder(c.UserContext(), GetScope(c), c.Params("id"), sales.ConvertQuotationInput{
		WarehouseID:  in.WarehouseID,
		CustomerPO:   in.CustomerPO,
		DeliveryDate: in.DeliveryDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(o))
}

// ListOrders godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "Pendiente | Entregado"
// @Param        client_id  query  string  false  "cliente"
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/orders [get]
func (h *SalesHandler) ListOrders(c *fiber.Ctx) error {
	f, _ := documentFilter(c)
	list, err := h.uc.ListOrders(c.UserContext(), GetScope(c), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, dto.OrderFromEntity(o))
	}
	return c.JSON(out)
}

// GetOrder godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *SalesHandler) GetOrder(c *fiber.Ctx) error {
	o, err := h.uc.GetOrder(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// InvoiceOrder godoc
// @Summary      Facturar pedido
// @Description  Asigna el NCF según el tipo de cliente. No mueve inventario.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del pedido"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/invoice [post]
func (h *SalesHandler) InvoiceOrder(c *fiber.Ctx) error {
	inv, err := h.uc.ConvertOrderToInvoice(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.InvoiceFromEntity(inv))
}

// ListInvoices godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "Pendiente | Pagada"
// @Param        client_id  query  string  false  "cliente"
// @Success      200  {array}   dto.InvoiceResponse
// @Router       /api/invoices [get]
func (h *SalesHandler) ListInvoices(c *fiber.Ctx) error {
	f, _ := documentFilter(c)
	list, err := h.uc.ListInvoices(c.UserContext(), GetScope(c), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.InvoiceFromEntity(inv))
	}
	return c.JSON(out)
}

// GetInvoice godoc
// @Summary      Obtener factura con abonos y saldo
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *SalesHandler) GetInvoice(c *fiber.Ctx) error {
	bal, err := h.uc.InvoiceBalance(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.InvoiceWithBalance(bal.Invoice, bal.Payments, bal.Paid, bal.Balance))
}

// InvoicePDF godoc
// @Summary      Descargar factura en PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *SalesHandler) InvoicePDF(c *fiber.Ctx) error {
	data, name, err := h.uc.RenderInvoicePDF(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
	return c.Send(data)
}

// RecordPayment godoc
// @Summary      Registrar abono
// @Description  La factura pasa a Pagada cuando lo abonado cubre el total. 409 si ya está pagada.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "ID de la factura"
// @Param        body  body      dto.RecordPaymentRequest  true  "monto y método"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [post]
func (h *SalesHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.uc.RecordPayment(c.UserContext(), GetScope(c), c.Params("id"), sales.RecordPaymentInput{Amount: in.Amount, Method: in.Method})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PaymentFromEntity(p))
}
