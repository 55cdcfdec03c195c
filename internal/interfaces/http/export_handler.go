package http

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// FileOpener lee archivos generados por el worker. Solo aplica a almacenamiento local.
type FileOpener interface {
	Open(location string) (io.ReadCloser, error)
}

// ExportHandler solicitudes de exportación y su bitácora (admin).
type ExportHandler struct {
	uc    *export.PipelineUseCase
	files FileOpener
}

// NewExportHandler construye el handler. files puede ser nil (archivos en GCS).
func NewExportHandler(uc *export.PipelineUseCase, files FileOpener) *ExportHandler {
	return &ExportHandler{uc: uc, files: files}
}

// Create godoc
// @Summary      Solicitar exportación
// @Description  Síncrona devuelve el archivo; asíncrona devuelve 202 con el trabajo en cola.
// @Description  Una síncrona por encima del máximo de filas responde 413 y queda registrada como fallida.
// @Tags         exports
// @Security     Bearer
// @Accept       json
// @Produce      json,text/csv,application/pdf
// @Param        body  body      dto.ExportRequest  true  "formato, tipo, modo y filtros del reporte"
// @Success      200   {file}    binary
// @Success      202   {object}  dto.ExportLogResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      413   {object}  dto.ErrorResponse
// @Router       /api/exports [post]
func (h *ExportHandler) Create(c *fiber.Ctx) error {
	var in dto.ExportRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.RequestExport(c.UserContext(), GetScope(c), export.ExportRequest{
		Query: reports.ReportQuery{
			From:     in.From,
			To:       in.To,
			Status:   in.Status,
			Category: in.Category,
		},
		Format: in.Format,
		Kind:   in.Kind,
		Async:  in.Async,
	})
	if err != nil {
		return respondError(c, err)
	}
	if !res.Inline {
		return c.Status(fiber.StatusAccepted).JSON(dto.ExportLogFromEntity(res.Log))
	}
	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Set("X-Export-ID", res.Log.ID)
	return c.Send(res.Data)
}

// List godoc
// @Summary      Bitácora de exportaciones
// @Tags         exports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ExportLogResponse
// @Router       /api/exports [get]
func (h *ExportHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.uc.ListJobs(c.UserContext(), GetScope(c), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ExportLogsFromEntity(list))
}

// Get godoc
// @Summary      Estado de una exportación
// @Tags         exports
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  dto.ExportLogResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/exports/{id} [get]
func (h *ExportHandler) Get(c *fiber.Ctx) error {
	l, err := h.uc.GetJob(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ExportLogFromEntity(l))
}

// Download godoc
// @Summary      Descargar el archivo de una exportación asíncrona
// @Tags         exports
// @Security     Bearer
// @Produce      octet-stream
// @Param        id   path  string  true  "ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/exports/{id}/download [get]
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	l, err := h.uc.GetJob(c.UserContext(), GetScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if l.Status != entity.ExportSuccess || l.FilePath == "" {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_READY", Message: "la exportación no tiene archivo disponible"})
	}
	if h.files == nil {
		return c.JSON(dto.ExportLogFromEntity(l))
	}
	f, err := h.files.Open(l.FilePath)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "archivo no encontrado"})
	}
	name := filepath.Base(l.FilePath)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Type(filepath.Ext(name))
	return c.SendStream(f)
}
