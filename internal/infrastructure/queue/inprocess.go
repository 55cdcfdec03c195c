package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// InProcess cola acotada atendida por goroutines del propio proceso.
// Los trabajos corren con un contexto propio: no dependen de la petición que los creó.
type InProcess struct {
	mu      sync.RWMutex
	closed  bool
	jobs    chan export.Job
	handler Handler
	log     *logger.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewInProcess arranca workers consumidores con un buffer de capacidad buffer.
func NewInProcess(handler Handler, workers, buffer int, log *logger.Logger) *InProcess {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &InProcess{
		jobs:    make(chan export.Job, buffer),
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.loop()
	}
	return q
}

// Submit encola sin bloquear; ErrQueueFull si el buffer está lleno.
func (q *InProcess) Submit(_ context.Context, job export.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *InProcess) loop() {
	defer q.wg.Done()
	for job := range q.jobs {
		if err := q.handler(q.ctx, job); err != nil && !errors.Is(err, ErrJobBusy) {
			q.log.Error().Err(err).Str("job_id", job.ID).Msg("exportación en proceso falló")
		}
	}
}

// Shutdown deja de aceptar trabajos y espera a que terminen los encolados.
// Si ctx vence antes, cancela los que sigan corriendo.
func (q *InProcess) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
