// Package lock exclusión entre instancias del worker (barrido programado y reclamo de trabajos).
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// Locker obtiene un lock con vencimiento. ok=false indica que otra instancia lo tiene.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Redis lock distribuido sobre bsm/redislock.
type Redis struct {
	client *redislock.Client
}

// NewRedis crea el locker a partir de un cliente redislock.
func NewRedis(client *redislock.Client) *Redis {
	return &Redis{client: client}
}

func (l *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtener lock %s: %w", key, err)
	}
	return func() { _ = lk.Release(context.Background()) }, true, nil
}

// Local lock de un solo proceso; para despliegues sin Redis.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocal crea un locker en memoria.
func NewLocal() *Local {
	return &Local{held: map[string]time.Time{}, now: time.Now}
}

func (l *Local) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.held[key]; ok && l.now().Before(until) {
		return nil, false, nil
	}
	until := l.now().Add(ttl)
	l.held[key] = until
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
	}, true, nil
}
