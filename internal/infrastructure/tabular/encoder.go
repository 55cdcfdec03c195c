// Package tabular codificadores por filas para exportaciones: CSV y XLSX.
package tabular

import (
	"fmt"
	"io"

	"github.com/jhoicas/Ventas-api/internal/application/export"
)

var _ export.Encoder = Encoder{}

// Encoder elige el codificador según el formato.
type Encoder struct{}

func (Encoder) NewTable(format string, w io.Writer, headers []string) (export.TableWriter, error) {
	switch format {
	case export.FormatCSV:
		return newCSV(w, headers)
	case export.FormatXLSX:
		return newXLSX(w, headers)
	default:
		return nil, fmt.Errorf("formato tabular no soportado: %s", format)
	}
}
