package entity

import "time"

// Company representa una organización/tenant del sistema (multi-tenant, República Dominicana).
// NCFFinal y NCFFiscal son el próximo número a emitir de cada serie.
type Company struct {
	ID        string
	Name      string
	RNC       string // Registro Nacional del Contribuyente
	Address   string
	Phone     string
	Email     string
	NCFFinal  int64
	NCFFiscal int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NextNCF devuelve el contador vigente de la serie.
func (c *Company) NextNCF(series NCFSeries) int64 {
	if series == SeriesFiscal {
		return c.NCFFiscal
	}
	return c.NCFFinal
}

// SetNextNCF fija el contador de la serie.
func (c *Company) SetNextNCF(series NCFSeries, n int64) {
	if series == SeriesFiscal {
		c.NCFFiscal = n
		return
	}
	c.NCFFinal = n
}
