package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

// HeaderCompanyID empresa elegida por un administrador de plataforma.
const HeaderCompanyID = "X-Company-ID"

// ScopeMiddleware resuelve el alcance del tenant una sola vez por petición.
// Los handlers leen el Scope con GetScope y nunca miran el token directamente.
func ScopeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := tenant.Resolve(GetUserID(c), GetCompanyID(c), GetRole(c), c.Get(HeaderCompanyID))
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no puede operar sobre otra empresa"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin usuario, empresa o rol"})
		}
		c.Locals(LocalScope, scope)
		return c.Next()
	}
}

// GetScope alcance resuelto por ScopeMiddleware; vacío si no pasó por él.
func GetScope(c *fiber.Ctx) tenant.Scope {
	s, _ := c.Locals(LocalScope).(tenant.Scope)
	return s
}
