package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	detalleHeaders = []string{"Fecha", "NCF", "Tipo", "Cliente", "Estado", "Método de pago", "Subtotal", "ITBIS", "Total"}
	resumenHeaders = []string{"Categoría", "Líneas", "Unidades", "Promedio", "Total"}
)

// ContentType tipo MIME por formato.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FormatCell texto de una celda; los montos van con dos decimales.
func FormatCell(c any) string {
	switch v := c.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// fileName nombre del archivo del trabajo.
func fileName(job Job) string {
	return fmt.Sprintf("reporte_%s_%s.%s", job.Kind, job.ID, job.Format)
}

// tableWriter escribe un trabajo en el formato pedido. Lo comparten el modo en línea y el trabajador.
type tableWriter struct {
	reports  repository.ReportRepository
	encoder  Encoder
	renderer TableRenderer
}

func (tw *tableWriter) count(ctx context.Context, job Job) (int, error) {
	if job.Kind == KindResumen {
		stats, err := tw.reports.CategoryStats(ctx, job.Filter)
		return len(stats), err
	}
	return tw.reports.CountInvoices(ctx, job.Filter)
}

// rows recorre las filas del reporte con memoria acotada (detalle va por cursor).
func (tw *tableWriter) rows(ctx context.Context, job Job, fn func([]any) error) error {
	if job.Kind == KindResumen {
		stats, err := tw.reports.CategoryStats(ctx, job.Filter)
		if err != nil {
			return err
		}
		for _, s := range stats {
			if err := fn([]any{s.Category, s.Count, s.Quantity, s.Avg, s.Sum}); err != nil {
				return err
			}
		}
		return nil
	}
	return tw.reports.StreamInvoices(ctx, job.Filter, func(r entity.InvoiceRow) error {
		return fn([]any{
			r.Date.Format("2006-01-02"), r.NCF, r.InvoiceType, r.ClientName, r.Status, r.PaymentMethod,
			r.Subtotal, r.ITBIS, r.Total,
		})
	})
}

func headersFor(kind string) []string {
	if kind == KindResumen {
		return resumenHeaders
	}
	return detalleHeaders
}

// write genera el archivo completo en w y devuelve las filas escritas.
func (tw *tableWriter) write(ctx context.Context, job Job, w io.Writer) (int, error) {
	n := 0
	if job.Format == FormatPDF {
		doc := TableDocument{
			Title:    "Reporte de ventas (" + job.Kind + ")",
			Subtitle: describe(job.Filter),
			Headers:  headersFor(job.Kind),
		}
		if err := tw.rows(ctx, job, func(cells []any) error {
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = FormatCell(c)
			}
			doc.Rows = append(doc.Rows, row)
			n++
			return nil
		}); err != nil {
			return 0, err
		}
		doc.Footer = []string{fmt.Sprintf("%d filas", n)}
		return n, tw.renderer.RenderTable(ctx, w, doc)
	}

	t, err := tw.encoder.NewTable(job.Format, w, headersFor(job.Kind))
	if err != nil {
		return 0, err
	}
	if err := tw.rows(ctx, job, func(cells []any) error {
		n++
		return t.WriteRow(cells)
	}); err != nil {
		return 0, err
	}
	return n, t.Close()
}

func describe(f repository.ReportFilter) string {
	var b bytes.Buffer
	b.WriteString("Período: ")
	switch {
	case f.From != nil && f.To != nil:
		fmt.Fprintf(&b, "%s a %s", f.From.Format("2006-01-02"), f.To.Format("2006-01-02"))
	case f.From != nil:
		fmt.Fprintf(&b, "desde %s", f.From.Format("2006-01-02"))
	case f.To != nil:
		fmt.Fprintf(&b, "hasta %s", f.To.Format("2006-01-02"))
	default:
		b.WriteString("todo")
	}
	if f.Status != "" {
		fmt.Fprintf(&b, " · Estado: %s", f.Status)
	}
	if f.Category != "" {
		fmt.Fprintf(&b, " · Categoría: %s", f.Category)
	}
	return b.String()
}
