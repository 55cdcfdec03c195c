package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ImportErrorResponse 400 de una importación rechazada con el detalle por fila.
type ImportErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Rows    []domain.RowError `json:"rows"`
}

// respondError traduce los errores de dominio a estado HTTP y código estable.
func respondError(c *fiber.Ctx, err error) error {
	var (
		importErr *domain.ImportError
		stockErr  *domain.InsufficientStockError
		tooMany   *domain.TooManyRowsError
	)
	switch {
	case errors.As(err, &importErr):
		return c.Status(fiber.StatusBadRequest).JSON(ImportErrorResponse{Code: "IMPORT_REJECTED", Message: "importación rechazada", Rows: importErr.Rows})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":       "INSUFFICIENT_STOCK",
			"message":    stockErr.Error(),
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &tooMany):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "TOO_MANY_ROWS", Message: tooMany.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrExpired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "EXPIRED", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// parseBody decodifica y valida el cuerpo. Devuelve false si ya respondió 400.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	return true, nil
}

// validationMessage resume los campos inválidos como "campo: regla".
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), rule))
	}
	return strings.Join(parts, "; ")
}

// page lee limit/offset de la query.
func page(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}.Normalize()
}

// queryRange lee from/to (YYYY-MM-DD o RFC3339). Un "to" sin hora cubre el día completo.
func queryRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, _, err = queryDate(c, "from"); err != nil {
		return nil, nil, err
	}
	var dateOnly bool
	if to, dateOnly, err = queryDate(c, "to"); err != nil {
		return nil, nil, err
	}
	if to != nil && dateOnly {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, false, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, false, nil
	}
	return nil, false, domain.NewValidationError(key, "fecha inválida, use YYYY-MM-DD")
}
