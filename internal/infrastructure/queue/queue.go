// Package queue implementa export.Dispatcher: en proceso, lista Redis y Google Pub/Sub.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/lock"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var (
	ErrQueueFull = errors.New("cola de exportaciones llena")
	ErrClosed    = errors.New("cola de exportaciones cerrada")
	// ErrJobBusy otro worker tiene el trabajo; la entrega debe volver a la cola.
	ErrJobBusy = errors.New("trabajo en curso en otro worker")
)

// Handler procesa un trabajo recibido de la cola.
type Handler func(ctx context.Context, job export.Job) error

func encode(job export.Job) ([]byte, error) {
	b, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("serializar trabajo %s: %w", job.ID, err)
	}
	return b, nil
}

func decode(b []byte) (export.Job, error) {
	var job export.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return job, fmt.Errorf("trabajo ilegible: %w", err)
	}
	if job.ID == "" {
		return job, errors.New("trabajo sin id")
	}
	return job, nil
}

// Claimed envuelve h para que una entrega repetida del mismo trabajo
// (reintento de Pub/Sub, dos workers) se procese una sola vez a la vez.
// Si el candado está tomado devuelve ErrJobBusy sin confirmar la entrega: si el
// dueño muere, el reintento llega cuando vence el ttl.
func Claimed(locker lock.Locker, ttl time.Duration, h Handler, log *logger.Logger) Handler {
	return func(ctx context.Context, job export.Job) error {
		release, ok, err := locker.TryLock(ctx, "exports:job:"+job.ID, ttl)
		if err != nil {
			return err
		}
		if !ok {
			log.Info().Str("job_id", job.ID).Msg("trabajo ya reclamado por otro worker")
			return fmt.Errorf("%s: %w", job.ID, ErrJobBusy)
		}
		defer release()
		return h(ctx, job)
	}
}

// Fallback intenta primary y, si falla, secondary (normalmente en proceso).
type Fallback struct {
	primary   export.Dispatcher
	secondary export.Dispatcher
	log       *logger.Logger
}

// NewFallback crea el despachador con respaldo.
func NewFallback(primary, secondary export.Dispatcher, log *logger.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) Submit(ctx context.Context, job export.Job) error {
	err := f.primary.Submit(ctx, job)
	if err == nil {
		return nil
	}
	f.log.Warn().Err(err).Str("job_id", job.ID).Msg("cola no disponible; se procesa en proceso")
	return f.secondary.Submit(ctx, job)
}

var (
	_ export.Dispatcher = (*Fallback)(nil)
	_ export.Dispatcher = (*InProcess)(nil)
	_ export.Dispatcher = (*Redis)(nil)
	_ export.Dispatcher = (*PubSub)(nil)
)
