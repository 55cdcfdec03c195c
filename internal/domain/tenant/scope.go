// Package tenant resuelve el alcance (empresa) de cada llamada.
// Todo acceso a datos recibe un Scope ya resuelto; ningún repositorio decide por su cuenta.
package tenant

import (
	"strings"

	"github.com/jhoicas/Ventas-api/internal/domain"
)

// Roles reconocidos en el token.
const (
	RolePlatformAdmin = "superadmin" // administra todas las empresas
	RoleAdmin         = "admin"
	RoleSeller        = "vendedor"
	RoleWarehouse     = "bodeguero"
)

// Scope alcance resuelto de la llamada.
// Bypass solo se da a un administrador de plataforma sin empresa seleccionada.
type Scope struct {
	CompanyID string
	UserID    string
	Role      string
	Bypass    bool
}

// Resolve construye el alcance a partir de la identidad del token.
// selected es la empresa elegida explícitamente (cabecera X-Company-ID); solo la
// respeta un administrador de plataforma. Un usuario de empresa no puede salir de la suya.
func Resolve(userID, companyID, role, selected string) (Scope, error) {
	userID = strings.TrimSpace(userID)
	companyID = strings.TrimSpace(companyID)
	selected = strings.TrimSpace(selected)
	if userID == "" || role == "" {
		return Scope{}, domain.ErrUnauthorized
	}

	if role == RolePlatformAdmin {
		if selected != "" {
			return Scope{CompanyID: selected, UserID: userID, Role: role}, nil
		}
		if companyID != "" {
			return Scope{CompanyID: companyID, UserID: userID, Role: role}, nil
		}
		return Scope{UserID: userID, Role: role, Bypass: true}, nil
	}

	if companyID == "" {
		return Scope{}, domain.ErrUnauthorized
	}
	if selected != "" && selected != companyID {
		return Scope{}, domain.ErrForbidden
	}
	return Scope{CompanyID: companyID, UserID: userID, Role: role}, nil
}

// ForCompany alcance de sistema para procesos internos (worker, tareas programadas).
func ForCompany(companyID string) Scope {
	if companyID == "" {
		return Scope{UserID: "system", Role: RolePlatformAdmin, Bypass: true}
	}
	return Scope{CompanyID: companyID, UserID: "system", Role: RolePlatformAdmin}
}

// Filter empresa a usar en lecturas; "" significa sin filtro (bypass).
func (s Scope) Filter() string {
	if s.Bypass {
		return ""
	}
	return s.CompanyID
}

// Allows indica si el registro de companyID es visible para este alcance.
func (s Scope) Allows(companyID string) bool {
	return s.Bypass || (s.CompanyID != "" && s.CompanyID == companyID)
}

// RequireTenant devuelve la empresa para operaciones de escritura; exige una seleccionada.
func (s Scope) RequireTenant() (string, error) {
	if s.CompanyID == "" {
		return "", domain.NewValidationError("company_id", "seleccione una empresa para esta operación")
	}
	return s.CompanyID, nil
}

// HasRole indica si el rol del alcance está entre los permitidos.
func (s Scope) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
