package entity

import (
	"fmt"
	"time"
)

// NCFSeries clase de comprobante fiscal.
type NCFSeries string

// Series de NCF.
const (
	SeriesFinal  NCFSeries = "final"  // consumidor final, B02
	SeriesFiscal NCFSeries = "fiscal" // crédito fiscal, B01
)

// Prefix prefijo del comprobante.
func (s NCFSeries) Prefix() string {
	if s == SeriesFiscal {
		return "B01"
	}
	return "B02"
}

// Valid indica si es una serie conocida.
func (s NCFSeries) Valid() bool {
	return s == SeriesFinal || s == SeriesFiscal
}

// FormatNCF arma el comprobante: prefijo + 8 dígitos.
func FormatNCF(series NCFSeries, n int64) string {
	return fmt.Sprintf("%s%08d", series.Prefix(), n)
}

// NcfLog bitácora de cambios manuales de los contadores.
type NcfLog struct {
	ID        string
	CompanyID string
	OldFinal  int64
	NewFinal  int64
	OldFiscal int64
	NewFiscal int64
	ChangedBy string
	ChangedAt time.Time
}
