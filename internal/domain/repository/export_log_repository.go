package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ExportLogRepository bitácora de exportaciones.
type ExportLogRepository interface {
	Create(ctx context.Context, log *entity.ExportLog) error
	GetByID(ctx context.Context, companyID, id string) (*entity.ExportLog, error)
	// Finish aplica la única actualización terminal; solo afecta filas en queued.
	// Devuelve false si la fila ya estaba terminada.
	Finish(ctx context.Context, id, status, message, filePath string, rows int) (bool, error)
	List(ctx context.Context, companyID string, limit, offset int) ([]*entity.ExportLog, error)
}
