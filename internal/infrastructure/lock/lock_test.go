package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SegundaInstanciaNoObtiene(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	_, ok, _ = l.TryLock(ctx, "sweep", time.Minute)
	assert.True(t, ok)
}

func TestLocal_VencimientoLibera(t *testing.T) {
	l := NewLocal()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, _ := l.TryLock(ctx, "job:1", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.TryLock(ctx, "job:1", time.Second)
	assert.True(t, ok)

	// liberar el lock vencido no suelta el del nuevo dueño
	stale()
	_, ok, _ = l.TryLock(ctx, "job:1", time.Second)
	assert.False(t, ok)
}
