// Package pdf genera con Maroto v2 la representación impresa de la factura con NCF
// y los documentos tabulares (estado de cuenta, reportes exportados).
//
// Layout de la factura en A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RNC  │  NCF + tipo + fecha          │
//	│  EMISOR: Dirección / Tel / Email                             │
//	│  CLIENTE: Nombre + RNC/Cédula + contacto                     │
//	│  TABLA: Cant | Descripción | P.Unit | Desc. | Subtotal       │
//	│  TOTALES: Subtotal / ITBIS / TOTAL / Pagado / Balance        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"io"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var (
	_ sales.InvoiceRenderer = (*MarotoRenderer)(nil)
	_ export.TableRenderer  = (*MarotoRenderer)(nil)
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer implementa sales.InvoiceRenderer y export.TableRenderer.
type MarotoRenderer struct{}

// NewMarotoRenderer construye el generador.
func NewMarotoRenderer() *MarotoRenderer { return &MarotoRenderer{} }

// RenderInvoice genera el PDF de la factura y devuelve sus bytes.
func (g *MarotoRenderer) RenderInvoice(
	_ context.Context,
	inv *entity.Invoice,
	company *entity.Company,
	client *entity.Client,
	paid decimal.Decimal,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.NCF, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(company))
	m.AddRows(clientRow(client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(itemsHeaderRow())
	m.AddRows(itemRows(inv.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv, paid))

	m.AddRows(line.NewRow(3))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Forma de pago: %s   |   Estado: %s", nonEmpty(inv.PaymentMethod, "—"), inv.Status),
			props.Text{Size: 8, Color: colorGray, Top: 2}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar factura: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones de la factura ──────────────────────────────────────────────────

// headerRow: Razón social + RNC (izq) y NCF + tipo + fecha (der).
func headerRow(inv *entity.Invoice, company *entity.Company) core.Row {
	kind := "FACTURA DE CONSUMO"
	if inv.InvoiceType == entity.SeriesFiscal {
		kind = "FACTURA DE CRÉDITO FISCAL"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RNC: "+nonEmpty(company.RNC, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(kind, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("NCF: "+inv.NCF, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+inv.Date.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func emisorRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(company.Address, "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func clientRow(client *entity.Client) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(client.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("RNC/Cédula: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(client.Identifier, "—"),
				nonEmpty(client.Email, "—"),
				nonEmpty(client.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// itemsHeaderRow cabecera de la tabla de ítems.
func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("Subtotal", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func itemRows(items []entity.LineItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := it.Name
		if !it.HasITBIS {
			name += " (E)"
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.Code+"  "+name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatMoney(it.Discount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(it.Subtotal()), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

// totalsRow bloque de totales alineado a la derecha.
func totalsRow(inv *entity.Invoice, paid decimal.Decimal) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 10}

	balance := inv.Total.Sub(paid)
	return row.New(32).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label("ITBIS:", 5),
			text.New("TOTAL:", grand),
			label("Pagado:", 17),
			label("Balance:", 22),
		),
		col.New(3).Add(
			value(formatMoney(inv.Subtotal), 0),
			value(formatMoney(inv.ITBIS), 5),
			text.New(formatMoney(inv.Total), grand),
			value(formatMoney(paid), 17),
			value(formatMoney(balance), 22),
		),
	)
}

// ── Documento tabular ────────────────────────────────────────────────────────

// RenderTable genera un PDF horizontal con título, tabla y pie de totales.
func (g *MarotoRenderer) RenderTable(_ context.Context, w io.Writer, doc export.TableDocument) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(doc.Title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(row.New(10).Add(col.New(12).Add(
		text.New(doc.Title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
	)))
	if doc.Subtitle != "" {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New(doc.Subtitle, props.Text{Size: 8, Color: colorGray}),
		)))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	sizes := columnSizes(len(doc.Headers))
	m.AddRows(tableRow(doc.Headers, sizes, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 1.5, Left: 1}).
		WithStyle(&props.Cell{BackgroundColor: colorPrimary}))
	for _, r := range doc.Rows {
		m.AddRows(tableRow(r, sizes, props.Text{Size: 7.5, Top: 1, Left: 1}))
	}
	if len(doc.Footer) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(tableRow(doc.Footer, sizes, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1}))
	}

	out, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar tabla: %w", err)
	}
	_, err = w.Write(out.GetBytes())
	return err
}

func tableRow(cells []string, sizes []int, style props.Text) core.Row {
	cols := make([]core.Col, 0, len(sizes))
	for i, size := range sizes {
		c := col.New(size)
		if i < len(cells) {
			c.Add(text.New(cells[i], style))
		}
		cols = append(cols, c)
	}
	return row.New(6).Add(cols...)
}

// columnSizes reparte las 12 columnas de la grilla; las sobrantes van a la primera.
func columnSizes(n int) []int {
	if n <= 0 {
		return nil
	}
	if n > 12 {
		n = 12
	}
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = 12 / n
	}
	sizes[0] += 12 % n
	return sizes
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato RD$ con separador de miles y dos decimales.
// Ej: 1234567.5 → "RD$ 1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "RD$ " + string(buf) + "." + frac
}
