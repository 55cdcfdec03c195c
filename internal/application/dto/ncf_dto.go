package dto

import (
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// UpdateNCFRequest body para PUT /api/settings/ncf. Un campo ausente no se toca.
type UpdateNCFRequest struct {
	NCFFinal  *int64 `json:"ncf_final" validate:"omitempty,gte=0"`
	NCFFiscal *int64 `json:"ncf_fiscal" validate:"omitempty,gte=0"`
}

// NcfLogResponse cambio manual de contadores.
type NcfLogResponse struct {
	ID        string    `json:"id"`
	OldFinal  int64     `json:"old_final"`
	NewFinal  int64     `json:"new_final"`
	OldFiscal int64     `json:"old_fiscal"`
	NewFiscal int64     `json:"new_fiscal"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// NcfLogsFromEntity mapea la bitácora.
func NcfLogsFromEntity(list []*entity.NcfLog) []NcfLogResponse {
	out := make([]NcfLogResponse, 0, len(list))
	for _, l := range list {
		out = append(out, NcfLogResponse{
			ID:        l.ID,
			OldFinal:  l.OldFinal,
			NewFinal:  l.NewFinal,
			OldFiscal: l.OldFiscal,
			NewFiscal: l.NewFiscal,
			ChangedBy: l.ChangedBy,
			ChangedAt: l.ChangedAt,
		})
	}
	return out
}
