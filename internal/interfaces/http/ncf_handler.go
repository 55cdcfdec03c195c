package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
)

// NCFHandler contadores de comprobantes fiscales (protegido; la edición exige admin).
type NCFHandler struct {
	uc *fiscal.AllocatorUseCase
}

// NewNCFHandler construye el handler.
func NewNCFHandler(uc *fiscal.AllocatorUseCase) *NCFHandler {
	return &NCFHandler{uc: uc}
}

// Get godoc
// @Summary      Contadores NCF
// @Description  Último número usado por serie y el próximo comprobante de cada una.
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  fiscal.Counters
// @Router       /api/settings/ncf [get]
func (h *NCFHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Counters(c.UserContext(), GetScope(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar contadores NCF
// @Description  Solo avanza; un valor menor al actual es 400. Deja constancia en la bitácora.
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.UpdateNCFRequest  true  "ncf_final y/o ncf_fiscal"
// @Success      200   {object}  fiscal.Counters
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/settings/ncf [put]
func (h *NCFHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateNCFRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	scope := GetScope(c)
	out, err := h.uc.UpdateCounters(c.UserContext(), scope, fiscal.UpdateCountersInput{
		NCFFinal:  in.NCFFinal,
		NCFFiscal: in.NCFFiscal,
		Actor:     scope.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Logs godoc
// @Summary      Bitácora de cambios de contadores
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.NcfLogResponse
// @Router       /api/settings/ncf/logs [get]
func (h *NCFHandler) Logs(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.uc.Logs(c.UserContext(), GetScope(c), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NcfLogsFromEntity(list))
}
