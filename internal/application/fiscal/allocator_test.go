package fiscal_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func setup(final, fiscalN int64) (*memory.Store, *fiscal.AllocatorUseCase) {
	store := memory.NewStore()
	store.PutCompany(entity.Company{ID: "c1", Name: "Colmado", NCFFinal: final, NCFFiscal: fiscalN})
	r := store.Repos()
	return store, fiscal.NewAllocatorUseCase(store, r.Companies, r.NcfLogs, logger.Nop())
}

var scope = tenant.Scope{CompanyID: "c1", UserID: "u1", Role: tenant.RoleAdmin}

func ptr(n int64) *int64 { return &n }

func TestAllocate_FormatoYSeriesIndependientes(t *testing.T) {
	store, uc := setup(7, 0)
	ctx := context.Background()

	ncf, err := uc.Allocate(ctx, scope, entity.SeriesFinal)
	require.NoError(t, err)
	assert.Equal(t, "B0200000007", ncf)

	ncf, err = uc.Allocate(ctx, scope, entity.SeriesFiscal)
	require.NoError(t, err)
	assert.Equal(t, "B0100000001", ncf)

	c := store.Company("c1")
	assert.Equal(t, int64(8), c.NCFFinal)
	assert.Equal(t, int64(2), c.NCFFiscal)
}

func TestAllocate_SaltaNumerosYaUsados(t *testing.T) {
	store, uc := setup(5, 1)
	store.PutInvoice(entity.Invoice{ID: "i5", CompanyID: "c1", NCF: "B0200000005"})
	store.PutInvoice(entity.Invoice{ID: "i6", CompanyID: "c1", NCF: "B0200000006"})

	ncf, err := uc.Allocate(context.Background(), scope, entity.SeriesFinal)
	require.NoError(t, err)
	assert.Equal(t, "B0200000007", ncf)
	assert.Equal(t, int64(8), store.Company("c1").NCFFinal)
}

func TestAllocate_ConcurrenteSinDuplicados(t *testing.T) {
	store, uc := setup(1, 1)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ncf, err := uc.Allocate(context.Background(), scope, entity.SeriesFinal)
			if assert.NoError(t, err) {
				results <- ncf
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for ncf := range results {
		assert.False(t, seen[ncf], "NCF repetido %s", ncf)
		seen[ncf] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, int64(n+1), store.Company("c1").NCFFinal)
}

func TestAllocate_SerieInvalidaOSinEmpresa(t *testing.T) {
	_, uc := setup(1, 1)

	_, err := uc.Allocate(context.Background(), scope, entity.NCFSeries("B15"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Allocate(context.Background(), tenant.Scope{CompanyID: "nadie", UserID: "u", Role: tenant.RoleAdmin}, entity.SeriesFinal)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCounters_NoPermiteRetroceder(t *testing.T) {
	store, uc := setup(100, 50)

	_, err := uc.UpdateCounters(context.Background(), scope, fiscal.UpdateCountersInput{NCFFinal: ptr(99), Actor: "u1"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "(100)")
	assert.Equal(t, int64(100), store.Company("c1").NCFFinal)
	assert.Empty(t, store.NcfLogs())
}

func TestUpdateCounters_UnaFilaDeBitacoraPorCambio(t *testing.T) {
	store, uc := setup(100, 50)
	ctx := context.Background()

	out, err := uc.UpdateCounters(ctx, scope, fiscal.UpdateCountersInput{NCFFinal: ptr(150), NCFFiscal: ptr(50), Actor: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "B0200000150", out.PreviewFinal)

	// Sin cambios: no hay fila nueva.
	_, err = uc.UpdateCounters(ctx, scope, fiscal.UpdateCountersInput{NCFFinal: ptr(150), Actor: "u1"})
	require.NoError(t, err)

	logs := store.NcfLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, int64(100), logs[0].OldFinal)
	assert.Equal(t, int64(150), logs[0].NewFinal)
	assert.Equal(t, int64(50), logs[0].OldFiscal)
	assert.Equal(t, int64(50), logs[0].NewFiscal)
	assert.Equal(t, "u1", logs[0].ChangedBy)
}
