package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/reports"
)

// ReportHandler tablero de ventas y estado de cuenta (protegido).
type ReportHandler struct {
	uc       *reports.ReportUseCase
	renderer export.TableRenderer
}

// NewReportHandler construye el handler. renderer puede ser nil (sin salida PDF).
func NewReportHandler(uc *reports.ReportUseCase, renderer export.TableRenderer) *ReportHandler {
	return &ReportHandler{uc: uc, renderer: renderer}
}

func reportQuery(c *fiber.Ctx) (reports.ReportQuery, error) {
	from, to, err := queryRange(c)
	if err != nil {
		return reports.ReportQuery{}, err
	}
	p := page(c)
	return reports.ReportQuery{
		From:     from,
		To:       to,
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}, nil
}

// Dashboard godoc
// @Summary      Reporte de ventas
// @Description  Totales, retención, ticket promedio, desgloses, tendencia de 24 meses y top 5. format=pdf devuelve el resumen por categoría.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from      query  string  false  "YYYY-MM-DD"
// @Param        to        query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        status    query  string  false  "Pendiente | Pagada"
// @Param        category  query  string  false  "categoría de producto"
// @Param        format    query  string  false  "json (defecto) | pdf"
// @Success      200  {object}  dto.ReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	q, err := reportQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	rep, err := h.uc.Dashboard(c.UserContext(), GetScope(c), q)
	if err != nil {
		return respondError(c, err)
	}
	if c.Query("format") != export.FormatPDF {
		return c.JSON(rep)
	}
	return h.sendPDF(c, dashboardDocument(rep), "reporte_ventas.pdf")
}

func (h *ReportHandler) sendPDF(c *fiber.Ctx, doc export.TableDocument, name string) error {
	if h.renderer == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_UNAVAILABLE", Message: "salida PDF no configurada"})
	}
	var buf bytes.Buffer
	if err := h.renderer.RenderTable(c.UserContext(), &buf, doc); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, export.ContentType(export.FormatPDF))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
	return c.Send(buf.Bytes())
}

func dashboardDocument(rep *dto.ReportDTO) export.TableDocument {
	doc := export.TableDocument{
		Title:    "Reporte de ventas",
		Subtitle: rep.MonthLabel,
		Headers:  []string{"Categoría", "Líneas", "Unidades", "Promedio", "Total"},
	}
	for _, s := range rep.Categories {
		doc.Rows = append(doc.Rows, []string{
			s.Category,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Quantity),
			export.FormatCell(s.Avg),
			export.FormatCell(s.Sum),
		})
	}
	doc.Footer = []string{
		fmt.Sprintf("Facturas: %d", rep.InvoiceCount),
		"Ventas: " + export.FormatCell(rep.TotalSales),
		"Ticket promedio: " + export.FormatCell(rep.AvgTicket),
		fmt.Sprintf("Clientes: %d (recurrentes %d, retención %s%%)", rep.UniqueClients, rep.ReturningClients, rep.RetentionRate.StringFixed(2)),
	}
	return doc
}

// Statement godoc
// @Summary      Estado de cuenta de un cliente
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        client_id  path      string  true   "cliente"
// @Param        format     query     string  false  "json (defecto) | pdf"
// @Success      200  {object}  dto.StatementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/statement/{client_id} [get]
func (h *ReportHandler) Statement(c *fiber.Ctx) error {
	st, err := h.uc.ClientStatement(c.UserContext(), GetScope(c), c.Params("client_id"))
	if err != nil {
		return respondError(c, err)
	}
	if c.Query("format") != export.FormatPDF {
		return c.JSON(st)
	}
	return h.sendPDF(c, statementDocument(st), "estado_cuenta.pdf")
}

func statementDocument(st *dto.StatementDTO) export.TableDocument {
	doc := export.TableDocument{
		Title:    "Estado de cuenta",
		Subtitle: st.ClientName,
		Headers:  []string{"Fecha", "NCF", "Estado", "Total", "Abonado", "Pendiente"},
	}
	for _, l := range st.Lines {
		doc.Rows = append(doc.Rows, []string{
			l.Date.Format("2006-01-02"),
			l.NCF,
			l.Status,
			export.FormatCell(l.Total),
			export.FormatCell(l.Paid),
			export.FormatCell(l.Balance),
		})
	}
	doc.Footer = []string{
		"Total facturado: " + export.FormatCell(st.Total),
		"Total abonado: " + export.FormatCell(st.Paid),
		"Saldo pendiente: " + export.FormatCell(st.Balance),
	}
	return doc
}
