// Package fiscal asigna los Números de Comprobante Fiscal (NCF) de cada empresa.
package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// maxSkips tope de números ocupados que se saltan en una sola asignación.
const maxSkips = 10000

// AllocatorUseCase contadores NCF por empresa. El contador guarda el próximo número a emitir.
type AllocatorUseCase struct {
	txRunner  ports.TxRunner
	companies repository.CompanyRepository
	logs      repository.NcfLogRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewAllocatorUseCase construye el caso de uso.
func NewAllocatorUseCase(txRunner ports.TxRunner, companies repository.CompanyRepository, logs repository.NcfLogRepository, log *logger.Logger) *AllocatorUseCase {
	return &AllocatorUseCase{txRunner: txRunner, companies: companies, logs: logs, log: log, now: time.Now}
}

// Counters estado actual de los contadores.
type Counters struct {
	NCFFinal      int64  `json:"ncf_final"`
	NCFFiscal     int64  `json:"ncf_fiscal"`
	PreviewFinal  string `json:"preview_final"`
	PreviewFiscal string `json:"preview_fiscal"`
}

// UpdateCountersInput edición manual; nil deja la serie como está.
type UpdateCountersInput struct {
	NCFFinal  *int64
	NCFFiscal *int64
	Actor     string
}

// Allocate asigna el próximo NCF de la serie en su propia transacción.
func (uc *AllocatorUseCase) Allocate(ctx context.Context, scope tenant.Scope, series entity.NCFSeries) (string, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return "", err
	}
	var ncf string
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		var err error
		ncf, err = uc.AllocateInTx(ctx, r, companyID, series)
		return err
	})
	return ncf, err
}

// AllocateInTx asigna dentro de la transacción del caller. Bloquea la fila de la empresa, toma el
// contador, salta números que ya tenga alguna factura (contador editado fuera de banda) y avanza.
func (uc *AllocatorUseCase) AllocateInTx(ctx context.Context, r repository.TxRepos, companyID string, series entity.NCFSeries) (string, error) {
	if !series.Valid() {
		return "", domain.NewValidationError("series", "serie NCF inválida")
	}
	company, err := r.Companies.GetForUpdate(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company == nil {
		return "", &domain.NotFoundError{Resource: "empresa", ID: companyID}
	}

	n := company.NextNCF(series)
	if n < 1 {
		n = 1
	}
	ncf := entity.FormatNCF(series, n)
	for skips := 0; ; skips++ {
		used, err := r.Invoices.ExistsNCF(ctx, companyID, ncf)
		if err != nil {
			return "", err
		}
		if !used {
			break
		}
		if skips >= maxSkips {
			return "", fmt.Errorf("fiscal: sin NCF libre tras %d intentos en serie %s", maxSkips, series)
		}
		uc.log.Tenant(companyID).Warn().Str("ncf", ncf).Msg("NCF ya usado, se salta")
		n++
		ncf = entity.FormatNCF(series, n)
	}

	company.SetNextNCF(series, n+1)
	if err := r.Companies.UpdateCounters(ctx, companyID, company.NCFFinal, company.NCFFiscal); err != nil {
		return "", err
	}
	return ncf, nil
}

// UpdateCounters edición manual de contadores. Solo se permite avanzar; cada edición que cambia
// algo deja una fila en la bitácora con valores anteriores y nuevos.
func (uc *AllocatorUseCase) UpdateCounters(ctx context.Context, scope tenant.Scope, in UpdateCountersInput) (*Counters, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	var out *Counters
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		company, err := r.Companies.GetForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		if company == nil {
			return &domain.NotFoundError{Resource: "empresa", ID: companyID}
		}
		newFinal, newFiscal := company.NCFFinal, company.NCFFiscal
		if in.NCFFinal != nil {
			if *in.NCFFinal < company.NCFFinal {
				return domain.NewValidationError("ncf_final",
					fmt.Sprintf("NCF Consumidor Final no puede ser menor al actual (%d)", company.NCFFinal))
			}
			newFinal = *in.NCFFinal
		}
		if in.NCFFiscal != nil {
			if *in.NCFFiscal < company.NCFFiscal {
				return domain.NewValidationError("ncf_fiscal",
					fmt.Sprintf("NCF Crédito Fiscal no puede ser menor al actual (%d)", company.NCFFiscal))
			}
			newFiscal = *in.NCFFiscal
		}
		out = countersOf(newFinal, newFiscal)
		if newFinal == company.NCFFinal && newFiscal == company.NCFFiscal {
			return nil
		}
		if err := r.Companies.UpdateCounters(ctx, companyID, newFinal, newFiscal); err != nil {
			return err
		}
		return r.NcfLogs.Create(ctx, &entity.NcfLog{
			ID:        uuid.New().String(),
			CompanyID: companyID,
			OldFinal:  company.NCFFinal,
			NewFinal:  newFinal,
			OldFiscal: company.NCFFiscal,
			NewFiscal: newFiscal,
			ChangedBy: in.Actor,
			ChangedAt: uc.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Counters lectura de los contadores de la empresa del alcance.
func (uc *AllocatorUseCase) Counters(ctx context.Context, scope tenant.Scope) (*Counters, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	c, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &domain.NotFoundError{Resource: "empresa", ID: companyID}
	}
	return countersOf(c.NCFFinal, c.NCFFiscal), nil
}

// Logs bitácora de ediciones, más reciente primero.
func (uc *AllocatorUseCase) Logs(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.NcfLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.logs.List(ctx, scope.Filter(), limit, offset)
}

func countersOf(final, fiscal int64) *Counters {
	return &Counters{
		NCFFinal:      final,
		NCFFiscal:     fiscal,
		PreviewFinal:  entity.FormatNCF(entity.SeriesFinal, max(final, 1)),
		PreviewFiscal: entity.FormatNCF(entity.SeriesFiscal, max(fiscal, 1)),
	}
}
