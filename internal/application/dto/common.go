package dto

// Límites de página de los listados.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest paginación por limit/offset.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize lleva Limit a [1, MaxPageLimit] (0 o negativo toma el defecto) y Offset a >= 0.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Response metadatos para la respuesta; HasMore cuando la página vino llena.
func (p PageRequest) Response(returned int) PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset, HasMore: returned >= p.Limit}
}

// PageResponse metadatos de página en respuestas. Total solo donde el listado lo cuenta.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total,omitempty"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
