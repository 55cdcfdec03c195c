package entity

import "time"

// Estados de un trabajo de exportación: queued → success | fail.
const (
	ExportQueued  = "queued"
	ExportSuccess = "success"
	ExportFail    = "fail"
)

// ExportLog una fila por solicitud de exportación; es la fuente de verdad del resultado.
type ExportLog struct {
	ID         string
	CompanyID  string
	Formato    string
	Tipo       string
	Filtros    string // JSON
	Status     string
	Message    string
	FilePath   string
	RowCount   int
	Async      bool
	CreatedBy  string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// Terminal indica si el trabajo ya terminó.
func (e *ExportLog) Terminal() bool {
	return e.Status == ExportSuccess || e.Status == ExportFail
}
