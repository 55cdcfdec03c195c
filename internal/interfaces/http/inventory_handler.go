package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  entrada y salida mueven quantity unidades; ajuste fija el saldo final.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AdjustStockRequest  true  "product_id, warehouse_id, type, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	scope := GetScope(c)
	m, err := h.uc.Adjust(c.UserContext(), scope, inventory.AdjustInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Actor:       scope.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// Transfer godoc
// @Summary      Trasladar stock entre almacenes
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransferRequest  true  "producto, origen, destino y cantidad"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	scope := GetScope(c)
	moves, err := h.uc.Transfer(c.UserContext(), scope, inventory.TransferInput{
		ProductID: in.ProductID,
		OriginID:  in.FromWarehouseID,
		DestID:    in.ToWarehouseID,
		Quantity:  in.Quantity,
		Actor:     scope.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementsFromEntity(moves))
}

// Import godoc
// @Summary      Cargar stock desde CSV
// @Description  Columnas: code, stock, min_stock (opcional). Todo o nada: con una fila mala no se aplica ninguna.
// @Tags         inventory
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        warehouse_id  formData  string  true  "almacén destino"
// @Param        file          formData  file    true  "archivo CSV"
// @Success      200  {object}  inventory.ImportResult
// @Failure      400  {object}  ImportErrorResponse
// @Router       /api/inventory/import [post]
func (h *InventoryHandler) Import(c *fiber.Ctx) error {
	warehouseID := c.FormValue("warehouse_id")
	if warehouseID == "" {
		return respondError(c, domain.NewValidationError("warehouse_id", "requerido"))
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "adjunte el archivo en el campo file"})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	rows, err := inventory.ParseImportCSV(f)
	if err != nil {
		return respondError(c, err)
	}
	scope := GetScope(c)
	res, err := h.uc.Import(c.UserContext(), scope, warehouseID, rows, scope.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// SetMinStock godoc
// @Summary      Fijar stock mínimo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SetMinStockRequest  true  "producto, almacén y mínimo"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/min [put]
func (h *InventoryHandler) SetMinStock(c *fiber.Ctx) error {
	var in dto.SetMinStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	s, err := h.uc.SetMinStock(c.UserContext(), GetScope(c), in.ProductID, in.WarehouseID, in.MinStock)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockFromEntity(s))
}

// LowStock godoc
// @Summary      Productos en o por debajo del mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.LowStockItem
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.uc.LowStock(c.UserContext(), GetScope(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// ListMovements godoc
// @Summary      Kardex de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "producto"
// @Param        warehouse_id  query  string  false  "almacén"
// @Param        reference_id  query  string  false  "pedido, traslado o importación"
// @Param        from          query  string  false  "YYYY-MM-DD"
// @Param        to            query  string  false  "YYYY-MM-DD"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, to, err := queryRange(c)
	if err != nil {
		return respondError(c, err)
	}
	p := page(c)
	list, err := h.uc.Movements(c.UserContext(), GetScope(c), repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		ReferenceID: c.Query("reference_id"),
		From:        from,
		To:          to,
		Limit:       p.Limit,
		Offset:      p.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementsFromEntity(list))
}
