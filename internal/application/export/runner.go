package export

import (
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Runner procesa trabajos asíncronos. Cada trabajo termina con exactamente una actualización
// terminal de su fila (success con ubicación o fail con mensaje).
type Runner struct {
	logs   repository.ExportLogRepository
	writer *tableWriter
	store  FileStore
	log    *logger.Logger
}

// NewRunner construye el trabajador.
func NewRunner(
	logs repository.ExportLogRepository,
	reportRepo repository.ReportRepository,
	encoder Encoder,
	renderer TableRenderer,
	store FileStore,
	log *logger.Logger,
) *Runner {
	return &Runner{
		logs:   logs,
		writer: &tableWriter{reports: reportRepo, encoder: encoder, renderer: renderer},
		store:  store,
		log:    log,
	}
}

// Process genera el archivo del trabajo y cierra la fila. Un pánico se registra como fail.
// Devuelve error solo si no pudo dejar la fila en estado terminal.
func (r *Runner) Process(ctx context.Context, job Job) (err error) {
	ctx, span := tracer.Start(ctx, "export.Process", trace.WithAttributes(
		attribute.String("job_id", job.ID), attribute.String("format", job.Format)))
	defer span.End()

	// una entrega repetida de un trabajo ya cerrado no vuelve a generar el archivo
	if l, lerr := r.logs.GetByID(ctx, job.CompanyID, job.ID); lerr == nil && l != nil && l.Status != entity.ExportQueued {
		r.log.Info().Str("job_id", job.ID).Str("status", l.Status).Msg("exportación ya cerrada; se omite")
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("job_id", job.ID).Interface("panic", p).Msg("pánico en exportación")
			err = r.finish(ctx, job, entity.ExportFail, fmt.Sprintf("error interno: %v", p), "", 0)
		}
	}()

	location, rows, werr := r.produce(ctx, job)
	if werr != nil {
		r.log.Warn().Err(werr).Str("job_id", job.ID).Msg("exportación fallida")
		return r.finish(ctx, job, entity.ExportFail, werr.Error(), "", 0)
	}
	span.SetAttributes(attribute.Int("rows", rows))
	return r.finish(ctx, job, entity.ExportSuccess, "", location, rows)
}

func (r *Runner) produce(ctx context.Context, job Job) (string, int, error) {
	name := path.Join(job.CompanyID, fileName(job))
	wc, location, err := r.store.Create(ctx, name)
	if err != nil {
		return "", 0, fmt.Errorf("abrir destino: %w", err)
	}
	rows, err := r.writer.write(ctx, job, wc)
	if cerr := wc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("cerrar destino: %w", cerr)
	}
	if err != nil {
		// no dejar un archivo a medias que parezca una exportación válida
		if rerr := r.store.Remove(context.WithoutCancel(ctx), location); rerr != nil {
			r.log.Error().Err(rerr).Str("job_id", job.ID).Str("location", location).Msg("no se pudo borrar el archivo incompleto")
		}
		return "", 0, err
	}
	return location, rows, nil
}

func (r *Runner) finish(ctx context.Context, job Job, status, message, location string, rows int) error {
	// La fila se cierra aunque el contexto del trabajo se haya cancelado.
	updated, err := r.logs.Finish(context.WithoutCancel(ctx), job.ID, status, message, location, rows)
	if err != nil {
		return fmt.Errorf("exportación %s: cerrar bitácora: %w", job.ID, err)
	}
	if !updated {
		r.log.Warn().Str("job_id", job.ID).Msg("la exportación ya estaba cerrada; se ignora el resultado")
		return nil
	}
	r.log.Info().Str("job_id", job.ID).Str("status", status).Int("rows", rows).Msg("exportación terminada")
	return nil
}
