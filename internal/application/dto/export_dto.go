package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ExportRequest body para POST /api/exports.
type ExportRequest struct {
	Format   string     `json:"format" validate:"required,oneof=csv xlsx pdf"`
	Kind     string     `json:"kind" validate:"omitempty,oneof=detalle resumen"`
	Async    bool       `json:"async"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Status   string     `json:"status,omitempty"`
	Category string     `json:"category,omitempty"`
}

// ExportLogResponse estado de un trabajo de exportación.
type ExportLogResponse struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	Format     string          `json:"format"`
	Kind       string          `json:"kind"`
	Filters    json.RawMessage `json:"filters,omitempty"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	FilePath   string          `json:"file_path,omitempty"`
	RowCount   int             `json:"row_count"`
	Async      bool            `json:"async"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// ExportLogFromEntity mapea la entidad.
func ExportLogFromEntity(l *entity.ExportLog) ExportLogResponse {
	out := ExportLogResponse{
		ID:         l.ID,
		CompanyID:  l.CompanyID,
		Format:     l.Formato,
		Kind:       l.Tipo,
		Status:     l.Status,
		Message:    l.Message,
		FilePath:   l.FilePath,
		RowCount:   l.RowCount,
		Async:      l.Async,
		CreatedBy:  l.CreatedBy,
		CreatedAt:  l.CreatedAt,
		FinishedAt: l.FinishedAt,
	}
	if json.Valid([]byte(l.Filtros)) {
		out.Filters = json.RawMessage(l.Filtros)
	}
	return out
}

// ExportLogsFromEntity mapea una lista.
func ExportLogsFromEntity(list []*entity.ExportLog) []ExportLogResponse {
	out := make([]ExportLogResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ExportLogFromEntity(l))
	}
	return out
}
