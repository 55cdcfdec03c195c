package inventory_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, _, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, *inventory.LedgerUseCase, *fakeNotifier) {
	t.Helper()
	store := memory.NewStore()
	store.PutCompany(entity.Company{ID: "c1", Name: "Ferretería Uno"})
	store.PutCompany(entity.Company{ID: "c2", Name: "Otra"})
	store.PutWarehouse(entity.Warehouse{ID: "w1", CompanyID: "c1", Name: "Principal"})
	store.PutWarehouse(entity.Warehouse{ID: "w2", CompanyID: "c1", Name: "Sucursal"})
	store.PutWarehouse(entity.Warehouse{ID: "wx", CompanyID: "c2", Name: "Ajeno"})
	store.PutProduct(entity.Product{ID: "p1", CompanyID: "c1", Code: "TOR-01", Name: "Tornillo"})
	store.PutProduct(entity.Product{ID: "p2", CompanyID: "c1", Code: "CLA-02", Name: "Clavo"})
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p1", WarehouseID: "w1", Stock: 10})

	n := &fakeNotifier{}
	r := store.Repos()
	uc := inventory.NewLedgerUseCase(store, r.Catalog, r.Stock, r.Movements, store.Notifications(), n, logger.Nop()).
		WithClock(func() time.Time { return fixedNow })
	return store, uc, n
}

func scopeC1() tenant.Scope {
	return tenant.Scope{CompanyID: "c1", UserID: "u1", Role: tenant.RoleAdmin}
}

// ─── Adjust ──────────────────────────────────────────────────────────────────

func TestAdjust_EntradaSumaYRegistraMovimiento(t *testing.T) {
	store, uc, _ := setup(t)

	mov, err := uc.Adjust(context.Background(), scopeC1(), inventory.AdjustInput{
		ProductID: "p1", WarehouseID: "w1", Type: entity.MovementEntrada, Quantity: 5, Actor: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, mov.Quantity)
	assert.Equal(t, entity.ReferenceManual, mov.ReferenceType)
	assert.Equal(t, 15, store.StockOf("p1", "w1"))
	assert.Equal(t, 15, store.Product("p1").Stock)
	assert.Len(t, store.Movements(), 1)
}

func TestAdjust_SalidaSinStockFallaSinCambios(t *testing.T) {
	store, uc, _ := setup(t)

	_, err := uc.Adjust(context.Background(), scopeC1(), inventory.AdjustInput{
		ProductID: "p1", WarehouseID: "w1", Type: entity.MovementSalida, Quantity: 11,
	})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 10, ise.Available)
	assert.Equal(t, 11, ise.Requested)
	assert.Equal(t, 10, store.StockOf("p1", "w1"))
	assert.Empty(t, store.Movements())
}

func TestAdjust_AjusteAbsolutoRegistraDeltaAbsoluto(t *testing.T) {
	store, uc, _ := setup(t)

	mov, err := uc.Adjust(context.Background(), scopeC1(), inventory.AdjustInput{
		ProductID: "p1", WarehouseID: "w1", Type: entity.MovementAjuste, Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, mov.Quantity)
	assert.Equal(t, 4, store.StockOf("p1", "w1"))
}

func TestAdjust_TipoInvalidoYCantidadCero(t *testing.T) {
	_, uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Adjust(ctx, scopeC1(), inventory.AdjustInput{ProductID: "p1", WarehouseID: "w1", Type: "robo", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Adjust(ctx, scopeC1(), inventory.AdjustInput{ProductID: "p1", WarehouseID: "w1", Type: entity.MovementEntrada})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjust_AlmacenDeOtraEmpresaNoExiste(t *testing.T) {
	_, uc, _ := setup(t)

	_, err := uc.Adjust(context.Background(), scopeC1(), inventory.AdjustInput{
		ProductID: "p1", WarehouseID: "wx", Type: entity.MovementEntrada, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Transfer ────────────────────────────────────────────────────────────────

func TestTransfer_DosMovimientosConReferenciaComun(t *testing.T) {
	store, uc, _ := setup(t)

	movs, err := uc.Transfer(context.Background(), scopeC1(), inventory.TransferInput{
		ProductID: "p1", OriginID: "w1", DestID: "w2", Quantity: 3, Actor: "u1",
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementSalida, movs[0].Type)
	assert.Equal(t, entity.MovementEntrada, movs[1].Type)
	assert.Equal(t, movs[0].ReferenceID, movs[1].ReferenceID)
	assert.Equal(t, 7, store.StockOf("p1", "w1"))
	assert.Equal(t, 3, store.StockOf("p1", "w2"))
	assert.Equal(t, 10, store.Product("p1").Stock)
}

func TestMovements_FiltraPorReferenciaYEmpresa(t *testing.T) {
	_, uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Adjust(ctx, scopeC1(), inventory.AdjustInput{ProductID: "p1", WarehouseID: "w1", Quantity: 1, Type: entity.MovementEntrada, Actor: "u1"})
	require.NoError(t, err)
	movs, err := uc.Transfer(ctx, scopeC1(), inventory.TransferInput{ProductID: "p1", OriginID: "w1", DestID: "w2", Quantity: 2, Actor: "u1"})
	require.NoError(t, err)

	all, err := uc.Movements(ctx, scopeC1(), repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byRef, err := uc.Movements(ctx, scopeC1(), repository.MovementFilter{ReferenceID: movs[0].ReferenceID})
	require.NoError(t, err)
	assert.Len(t, byRef, 2)

	other, err := uc.Movements(ctx, tenant.Scope{CompanyID: "c2", UserID: "u9", Role: tenant.RoleAdmin}, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTransfer_MismoAlmacenOInsuficiente(t *testing.T) {
	store, uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Transfer(ctx, scopeC1(), inventory.TransferInput{ProductID: "p1", OriginID: "w1", DestID: "w1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Transfer(ctx, scopeC1(), inventory.TransferInput{ProductID: "p1", OriginID: "w1", DestID: "w2", Quantity: 50})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, store.StockOf("p1", "w1"))
	assert.Empty(t, store.Movements())
}

// ─── DebitInTx ───────────────────────────────────────────────────────────────

func TestDebitInTx_TodoONada(t *testing.T) {
	store, uc, _ := setup(t)
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p2", WarehouseID: "w1", Stock: 1})

	err := store.Run(context.Background(), func(r repository.TxRepos) error {
		return uc.DebitInTx(context.Background(), r, "c1", "w1", []inventory.Debit{
			{ProductID: "p1", ProductName: "Tornillo", Quantity: 4},
			{ProductID: "p2", ProductName: "Clavo", Quantity: 2},
		}, entity.ReferenceOrder, "o1", "u1", fixedNow)
	})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "p2", ise.ProductID)
	assert.Equal(t, 10, store.StockOf("p1", "w1"))
	assert.Equal(t, 1, store.StockOf("p2", "w1"))
	assert.Empty(t, store.Movements())
}

func TestDebitInTx_LineasRepetidasSeSumanContraElSaldo(t *testing.T) {
	store, uc, _ := setup(t)

	err := store.Run(context.Background(), func(r repository.TxRepos) error {
		return uc.DebitInTx(context.Background(), r, "c1", "w1", []inventory.Debit{
			{ProductID: "p1", Quantity: 6},
			{ProductID: "p1", Quantity: 6},
		}, entity.ReferenceOrder, "o1", "u1", fixedNow)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	err = store.Run(context.Background(), func(r repository.TxRepos) error {
		return uc.DebitInTx(context.Background(), r, "c1", "w1", []inventory.Debit{
			{ProductID: "p1", Quantity: 4},
			{ProductID: "p1", Quantity: 6},
		}, entity.ReferenceOrder, "o1", "u1", fixedNow)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.StockOf("p1", "w1"))
	assert.Len(t, store.Movements(), 2)
}

func TestDebitInTx_ConcurrenteNuncaNegativo(t *testing.T) {
	store, uc, _ := setup(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Run(context.Background(), func(r repository.TxRepos) error {
				return uc.DebitInTx(context.Background(), r, "c1", "w1", []inventory.Debit{{ProductID: "p1", Quantity: 1}},
					entity.ReferenceOrder, "o", "u", fixedNow)
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, store.StockOf("p1", "w1"))
}

// ─── Import ──────────────────────────────────────────────────────────────────

func TestImport_FilaMalaNoAplicaNinguna(t *testing.T) {
	store, uc, _ := setup(t)

	_, err := uc.Import(context.Background(), scopeC1(), "w1", []inventory.ImportRow{
		{Line: 2, Code: "TOR-01", Stock: "20"},
		{Line: 3, Code: "NOEXISTE", Stock: "5"},
		{Line: 4, Code: "CLA-02", Stock: "abc"},
	}, "u1")
	var ie *domain.ImportError
	require.ErrorAs(t, err, &ie)
	require.Len(t, ie.Rows, 2)
	assert.Equal(t, 3, ie.Rows[0].Line)
	assert.Equal(t, 4, ie.Rows[1].Line)
	assert.Equal(t, 10, store.StockOf("p1", "w1"))
	assert.Empty(t, store.Movements())
}

func TestImport_AplicaStockAbsolutoYMinimo(t *testing.T) {
	store, uc, _ := setup(t)

	res, err := uc.Import(context.Background(), scopeC1(), "w1", []inventory.ImportRow{
		{Line: 2, Code: "TOR-01", Stock: "20", MinStock: "5"},
		{Line: 3, Code: "CLA-02", Stock: "7"},
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 20, store.StockOf("p1", "w1"))
	assert.Equal(t, 7, store.StockOf("p2", "w1"))

	movs := store.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.ReferenceImport, m.ReferenceType)
		assert.Equal(t, res.ReferenceID, m.ReferenceID)
	}
}

func TestParseImportCSV_Windows1252YPuntoYComa(t *testing.T) {
	// "NIÑO" en Windows-1252: Ñ = 0xD1
	raw := "code;stock;min_stock\nTOR-01;12;3\nNI\xd1O;4;\nni\xf1o;1;0\n"
	rows, err := inventory.ParseImportCSV(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, inventory.ImportRow{Line: 2, Code: "TOR-01", Stock: "12", MinStock: "3"}, rows[0])
	assert.Equal(t, "NIÑO", rows[1].Code)
	assert.Equal(t, "", rows[1].MinStock)
	assert.Equal(t, "niño", rows[2].Code)
}

func TestParseImportCSV_LineaFisicaConCampoMultilinea(t *testing.T) {
	_, uc, _ := setup(t)
	raw := "code,stock,nota\nTOR-01,2,\"primera\nsegunda\"\n\nCLA-02,x,ok\n"
	rows, err := inventory.ParseImportCSV(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 5, rows[1].Line)

	_, err = uc.Import(context.Background(), scopeC1(), "w1", rows, "u1")
	var ie *domain.ImportError
	require.ErrorAs(t, err, &ie)
	require.Len(t, ie.Rows, 1)
	assert.Equal(t, 5, ie.Rows[0].Line)
	assert.Equal(t, "CLA-02", ie.Rows[0].Code)
}

func TestParseImportCSV_CabeceraIncompleta(t *testing.T) {
	_, err := inventory.ParseImportCSV(strings.NewReader("\xef\xbb\xbfcodigo,cantidad\nA,1\n"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ─── LowStock ────────────────────────────────────────────────────────────────

func TestLowStock_UnAvisoPorProductoYCierreAlReponer(t *testing.T) {
	store, uc, n := setup(t)
	ctx := context.Background()
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p1", WarehouseID: "w1", Stock: 2, MinStock: 5})
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p1", WarehouseID: "w2", Stock: 1, MinStock: 2})

	items, err := uc.LowStock(ctx, scopeC1())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = uc.LowStock(ctx, scopeC1())
	require.NoError(t, err)
	assert.Len(t, n.sent, 1, "la segunda lectura no debe repetir el aviso")
	assert.Contains(t, n.sent[0], "Principal")
	assert.Contains(t, n.sent[0], "Sucursal")

	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p1", WarehouseID: "w1", Stock: 50, MinStock: 5})
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: "p1", WarehouseID: "w2", Stock: 50, MinStock: 2})
	items, err = uc.LowStock(ctx, scopeC1())
	require.NoError(t, err)
	assert.Empty(t, items)

	all := store.AllNotifications()
	require.Len(t, all, 1)
	assert.False(t, all[0].Open())
}
