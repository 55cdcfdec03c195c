package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// NewRedisClient conecta y verifica Redis.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Redis cola sobre una lista: LPUSH al encolar, BRPOP al consumir.
type Redis struct {
	rdb        *redis.Client
	key        string
	retryDelay time.Duration
	log        *logger.Logger
}

// NewRedis crea la cola sobre la lista key.
func NewRedis(rdb *redis.Client, key string, log *logger.Logger) *Redis {
	return &Redis{rdb: rdb, key: key, retryDelay: 2 * time.Second, log: log}
}

func (q *Redis) Submit(ctx context.Context, job export.Job) error {
	b, err := encode(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("encolar en redis: %w", err)
	}
	return nil
}

// Consume atiende la lista hasta que ctx se cancele.
func (q *Redis) Consume(ctx context.Context, h Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := q.rdb.BRPop(ctx, 5*time.Second, q.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case ctx.Err() != nil:
			return nil
		case err != nil:
			q.log.Error().Err(err).Msg("lectura de cola redis")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		// res = [clave, valor]
		job, err := decode([]byte(res[1]))
		if err != nil {
			q.log.Error().Err(err).Msg("trabajo descartado")
			continue
		}
		err = h(ctx, job)
		switch {
		case errors.Is(err, ErrJobBusy):
			q.requeue(ctx, job)
		case err != nil:
			q.log.Error().Err(err).Str("job_id", job.ID).Msg("exportación falló")
		}
	}
}

// requeue devuelve al final de la lista un trabajo que otro worker tiene tomado,
// tras una pausa para no girar en vacío sobre el mismo candado.
func (q *Redis) requeue(ctx context.Context, job export.Job) {
	select {
	case <-ctx.Done():
	case <-time.After(q.retryDelay):
	}
	if err := q.Submit(context.WithoutCancel(ctx), job); err != nil {
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("no se pudo devolver el trabajo a la cola")
	}
}
