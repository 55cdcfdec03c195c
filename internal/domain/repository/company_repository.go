package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	// GetForUpdate bloquea la fila de la empresa (contadores NCF) hasta el fin de la tx.
	GetForUpdate(ctx context.Context, id string) (*entity.Company, error)
	UpdateCounters(ctx context.Context, id string, ncfFinal, ncfFiscal int64) error
}

// NcfLogRepository bitácora append-only de cambios de contadores.
type NcfLogRepository interface {
	Create(ctx context.Context, log *entity.NcfLog) error
	List(ctx context.Context, companyID string, limit, offset int) ([]*entity.NcfLog, error)
}
