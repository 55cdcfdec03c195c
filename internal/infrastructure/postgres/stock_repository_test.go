package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	kind string // exec | queryrow
	sql  string
	args []any
}

// recordingQuerier guarda cada sentencia en orden y responde QueryRow con row.
type recordingQuerier struct {
	calls   []recordedCall
	row     []any
	execErr error
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, recordedCall{kind: "exec", sql: sql, args: args})
	if q.execErr != nil {
		return pgconn.CommandTag{}, q.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no usado")
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, recordedCall{kind: "queryrow", sql: sql, args: args})
	return fixedRow(q.row)
}

type fixedRow []any

func (r fixedRow) Scan(dest ...any) error {
	if r == nil {
		return pgx.ErrNoRows
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i].(string)
		case *int:
			*p = r[i].(int)
		case *time.Time:
			*p = r[i].(time.Time)
		default:
			return errors.New("destino no soportado")
		}
	}
	return nil
}

func compact(sql string) string { return strings.Join(strings.Fields(sql), " ") }

func TestGetForUpdate_AseguraLaFilaAntesDeBloquear(t *testing.T) {
	q := &recordingQuerier{row: []any{"c1", "p1", "w1", 0, 0, time.Now()}}

	s, err := NewStockRepository(q).GetForUpdate(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "c1", s.CompanyID)
	assert.Zero(t, s.Stock)

	require.Len(t, q.calls, 2)
	ensure, lock := q.calls[0], q.calls[1]

	assert.Equal(t, "exec", ensure.kind)
	assert.Contains(t, compact(ensure.sql), "INSERT INTO product_stock")
	assert.Contains(t, compact(ensure.sql), "ON CONFLICT (product_id, warehouse_id) DO NOTHING")
	assert.Equal(t, []any{"p1", "w1"}, ensure.args)

	assert.Equal(t, "queryrow", lock.kind)
	assert.True(t, strings.HasSuffix(compact(lock.sql), "FOR UPDATE"), lock.sql)
	assert.Equal(t, []any{"p1", "w1"}, lock.args)
}

func TestGetForUpdate_FalloAlAsegurarNoLee(t *testing.T) {
	q := &recordingQuerier{execErr: errors.New("lock timeout")}

	_, err := NewStockRepository(q).GetForUpdate(context.Background(), "p1", "w1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	assert.Len(t, q.calls, 1)
}

func TestGet_SoloLecturaNoInserta(t *testing.T) {
	q := &recordingQuerier{row: []any{"c1", "p1", "w1", 4, 1, time.Now()}}

	s, err := NewStockRepository(q).Get(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Stock)
	require.Len(t, q.calls, 1)
	assert.Equal(t, "queryrow", q.calls[0].kind)
	assert.NotContains(t, q.calls[0].sql, "FOR UPDATE")
}
