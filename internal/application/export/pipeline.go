package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/Ventas-api/internal/application/export")

// ExportRequest solicitud de exportación.
type ExportRequest struct {
	Query  reports.ReportQuery
	Format string
	Kind   string
	Async  bool
}

// ExportResult en línea trae el archivo; en asíncrono solo la fila queued para consultar después.
type ExportResult struct {
	Log         *entity.ExportLog
	Inline      bool
	FileName    string
	ContentType string
	Data        []byte
}

// PipelineUseCase recibe solicitudes de exportación.
type PipelineUseCase struct {
	logs       repository.ExportLogRepository
	writer     *tableWriter
	dispatcher Dispatcher
	maxRows    int
	log        *logger.Logger
	now        func() time.Time
}

// NewPipelineUseCase construye el caso de uso. maxRows es el tope del modo en línea.
func NewPipelineUseCase(
	logs repository.ExportLogRepository,
	reportRepo repository.ReportRepository,
	encoder Encoder,
	renderer TableRenderer,
	dispatcher Dispatcher,
	maxRows int,
	log *logger.Logger,
) *PipelineUseCase {
	return &PipelineUseCase{
		logs:       logs,
		writer:     &tableWriter{reports: reportRepo, encoder: encoder, renderer: renderer},
		dispatcher: dispatcher,
		maxRows:    maxRows,
		log:        log,
		now:        time.Now,
	}
}

// RequestExport cuenta primero. Hasta maxRows genera en línea; por encima exige modo asíncrono
// (TooManyRowsError). En asíncrono deja la fila en queued y entrega el trabajo al despachador;
// el PDF no pasa de maxRows en ningún modo.
func (uc *PipelineUseCase) RequestExport(ctx context.Context, scope tenant.Scope, in ExportRequest) (*ExportResult, error) {
	ctx, span := tracer.Start(ctx, "export.RequestExport", trace.WithAttributes(
		attribute.String("format", in.Format), attribute.String("kind", in.Kind), attribute.Bool("async", in.Async)))
	defer span.End()

	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if in.Format != FormatCSV && in.Format != FormatXLSX && in.Format != FormatPDF {
		return nil, domain.NewValidationError("formato", "formato inválido (csv, xlsx, pdf)")
	}
	if in.Kind == "" {
		in.Kind = KindDetalle
	}
	if in.Kind != KindDetalle && in.Kind != KindResumen {
		return nil, domain.NewValidationError("tipo", "tipo inválido (detalle, resumen)")
	}
	f, err := reports.Filter(scope, in.Query)
	if err != nil {
		return nil, err
	}
	filtros, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}

	job := Job{ID: uuid.New().String(), CompanyID: companyID, Filter: f, Format: in.Format, Kind: in.Kind, RequestedBy: scope.UserID}
	entry := &entity.ExportLog{
		ID:        job.ID,
		CompanyID: companyID,
		Formato:   in.Format,
		Tipo:      in.Kind,
		Filtros:   string(filtros),
		Status:    entity.ExportQueued,
		Async:     in.Async,
		CreatedBy: scope.UserID,
		CreatedAt: uc.now(),
	}

	// CSV y XLSX se escriben en flujo; el PDF se arma entero en memoria y
	// conserva el tope también en asíncrono.
	if in.Async && in.Format != FormatPDF {
		return uc.enqueue(ctx, job, entry)
	}

	count, err := uc.writer.count(ctx, job)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", count))
	if count > uc.maxRows {
		tooMany := &domain.TooManyRowsError{Count: count, Limit: uc.maxRows}
		uc.terminal(ctx, entry, entity.ExportFail, tooMany.Error(), 0)
		return nil, tooMany
	}
	if in.Async {
		return uc.enqueue(ctx, job, entry)
	}

	var buf bytes.Buffer
	rows, err := uc.writer.write(ctx, job, &buf)
	if err != nil {
		uc.terminal(ctx, entry, entity.ExportFail, err.Error(), 0)
		return nil, fmt.Errorf("exportación: %w", err)
	}
	uc.terminal(ctx, entry, entity.ExportSuccess, "", rows)
	return &ExportResult{
		Log:         entry,
		Inline:      true,
		FileName:    fileName(job),
		ContentType: ContentType(job.Format),
		Data:        buf.Bytes(),
	}, nil
}

func (uc *PipelineUseCase) enqueue(ctx context.Context, job Job, entry *entity.ExportLog) (*ExportResult, error) {
	if err := uc.logs.Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := uc.dispatcher.Submit(ctx, job); err != nil {
		if _, ferr := uc.logs.Finish(ctx, job.ID, entity.ExportFail, "no se pudo encolar: "+err.Error(), "", 0); ferr != nil {
			uc.log.Error().Err(ferr).Str("job_id", job.ID).Msg("no se pudo cerrar la exportación fallida")
		}
		return nil, fmt.Errorf("exportación: encolar: %w", err)
	}
	uc.log.Info().Str("job_id", job.ID).Str("company_id", job.CompanyID).Msg("exportación encolada")
	return &ExportResult{Log: entry}, nil
}

// terminal guarda la fila ya terminada (modo en línea: nunca pasa por queued visible).
func (uc *PipelineUseCase) terminal(ctx context.Context, entry *entity.ExportLog, status, message string, rows int) {
	now := uc.now()
	entry.Status, entry.Message, entry.RowCount, entry.FinishedAt = status, message, rows, &now
	if err := uc.logs.Create(ctx, entry); err != nil {
		uc.log.Error().Err(err).Str("job_id", entry.ID).Msg("no se pudo registrar la exportación")
	}
}

// GetJob estado de una exportación para consulta periódica.
func (uc *PipelineUseCase) GetJob(ctx context.Context, scope tenant.Scope, id string) (*entity.ExportLog, error) {
	l, err := uc.logs.GetByID(ctx, scope.Filter(), id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &domain.NotFoundError{Resource: "exportación", ID: id}
	}
	return l, nil
}

// ListJobs exportaciones recientes del alcance.
func (uc *PipelineUseCase) ListJobs(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*entity.ExportLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.logs.List(ctx, scope.Filter(), limit, offset)
}
