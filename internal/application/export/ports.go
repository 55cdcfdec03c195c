// Package export implementa la canalización de exportación de reportes: conteo, modo en línea
// o asíncrono, y el trabajador que escribe el archivo y cierra la fila de la bitácora.
package export

import (
	"context"
	"io"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// Formatos y tipos de reporte.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	KindDetalle = "detalle" // una fila por factura
	KindResumen = "resumen" // agregado por categoría
)

// Job trabajo asíncrono. Viaja serializado en JSON por las colas.
type Job struct {
	ID          string                  `json:"id"`
	CompanyID   string                  `json:"company_id"`
	Filter      repository.ReportFilter `json:"filter"`
	Format      string                  `json:"format"`
	Kind        string                  `json:"kind"`
	RequestedBy string                  `json:"requested_by"`
}

// Dispatcher entrega un trabajo a un consumidor en segundo plano. Submit nunca espera
// a que el trabajo termine.
type Dispatcher interface {
	Submit(ctx context.Context, job Job) error
}

// TableWriter recibe filas una a una; Close vacía lo pendiente (no cierra el io.Writer).
type TableWriter interface {
	WriteRow(cells []any) error
	Close() error
}

// Encoder formatos tabulares por filas (csv, xlsx).
type Encoder interface {
	NewTable(format string, w io.Writer, headers []string) (TableWriter, error)
}

// TableDocument documento tipo estado de cuenta: título, tabla y totales.
type TableDocument struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
	Footer   []string
}

// TableRenderer genera el PDF de un TableDocument.
type TableRenderer interface {
	RenderTable(ctx context.Context, w io.Writer, doc TableDocument) error
}

// FileStore destino de los archivos generados. location es lo que se guarda en la bitácora.
// Remove borra lo que dejó un Create fallido; un location inexistente no es error.
type FileStore interface {
	Create(ctx context.Context, name string) (wc io.WriteCloser, location string, err error)
	Remove(ctx context.Context, location string) error
}
