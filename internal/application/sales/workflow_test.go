package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

const (
	prodA = "6f1c2a9e-0000-4000-8000-00000000000a"
	prodB = "6f1c2a9e-0000-4000-8000-00000000000b"
)

type recorder struct {
	mu     sync.Mutex
	notes  []string
	emails []string
}

func (r *recorder) Send(_ context.Context, _, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, msg)
	return nil
}

func (r *recorder) SendEmail(_ context.Context, to, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, to)
	return nil
}

type fixture struct {
	store *memory.Store
	uc    *sales.WorkflowUseCase
	rec   *recorder
	now   time.Time
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutCompany(entity.Company{ID: "c1", Name: "Colmado La Esquina", NCFFinal: 1, NCFFiscal: 1})
	store.PutCompany(entity.Company{ID: "c2", Name: "Otra"})
	store.PutClient(entity.Client{ID: "cf", CompanyID: "c1", Name: "Consumidor", IsFinalConsumer: true, Email: "cf@example.com"})
	store.PutClient(entity.Client{ID: "emp", CompanyID: "c1", Name: "Empresa SRL", Identifier: "101000001"})
	store.PutClient(entity.Client{ID: "sinrnc", CompanyID: "c1", Name: "Sin RNC"})
	store.PutWarehouse(entity.Warehouse{ID: "w1", CompanyID: "c1", Name: "Principal"})
	store.PutProduct(entity.Product{ID: prodA, CompanyID: "c1", Code: "A", Name: "Arroz", Price: d("100"), HasITBIS: true, Category: "Granos"})
	store.PutProduct(entity.Product{ID: prodB, CompanyID: "c1", Code: "B", Name: "Batata", Price: d("50"), Category: "Víveres"})
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: prodA, WarehouseID: "w1", Stock: 10})
	store.PutStock(entity.ProductStock{CompanyID: "c1", ProductID: prodB, WarehouseID: "w1", Stock: 5})

	f := &fixture{store: store, rec: &recorder{}, now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	r := store.Repos()
	log := logger.Nop()
	ledger := inventory.NewLedgerUseCase(store, r.Catalog, r.Stock, r.Movements, store.Notifications(), f.rec, log)
	alloc := fiscal.NewAllocatorUseCase(store, r.Companies, r.NcfLogs, log)
	f.uc = sales.NewWorkflowUseCase(store, r, ledger, alloc, ledger, nil, f.rec, f.rec, sales.DefaultSettings(), log).
		WithClock(func() time.Time { return f.now })
	return f
}

var scopeC1 = tenant.Scope{CompanyID: "c1", UserID: "vend-1", Role: tenant.RoleSeller}

func (f *fixture) quote(t *testing.T, clientID string, lines ...sales.QuotationLine) *entity.Quotation {
	t.Helper()
	q, err := f.uc.CreateQuotation(context.Background(), scopeC1, sales.CreateQuotationInput{
		ClientID: clientID, WarehouseID: "w1", PaymentMethod: "efectivo", Lines: lines,
	})
	require.NoError(t, err)
	return q
}

func standardLines() []sales.QuotationLine {
	return []sales.QuotationLine{
		{ProductID: prodA, Quantity: 2},
		{ProductID: prodB, Quantity: 1, DiscountPercent: d("10")},
	}
}

// ─── Flujo completo ──────────────────────────────────────────────────────────

func TestFlujo_CotizacionPedidoFacturaAbono(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q := f.quote(t, "cf", standardLines()...)
	assert.Equal(t, entity.QuotationVigente, q.Status)
	assert.True(t, q.Subtotal.Equal(d("245")))
	assert.True(t, q.ITBIS.Equal(d("36")))
	assert.True(t, q.Total.Equal(d("281")))

	order, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{CustomerPO: "OC-77"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPendiente, order.Status)
	assert.Equal(t, 8, f.store.StockOf(prodA, "w1"))
	assert.Equal(t, 4, f.store.StockOf(prodB, "w1"))
	movs := f.store.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementSalida, m.Type)
		assert.Equal(t, entity.ReferenceOrder, m.ReferenceType)
		assert.Equal(t, order.ID, m.ReferenceID)
	}
	q, err = f.uc.GetQuotation(ctx, scopeC1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuotationConvertida, q.Status)

	inv, err := f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "B0200000001", inv.NCF)
	assert.Equal(t, entity.SeriesFinal, inv.InvoiceType)
	assert.True(t, inv.Total.Equal(d("281")))
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, []string{"cf@example.com"}, f.rec.emails)

	order, err = f.uc.GetOrder(ctx, scopeC1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderEntregado, order.Status)

	_, err = f.uc.RecordPayment(ctx, scopeC1, inv.ID, sales.RecordPaymentInput{Amount: d("200"), Method: "efectivo"})
	require.NoError(t, err)
	bal, err := f.uc.InvoiceBalance(ctx, scopeC1, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePendiente, bal.Invoice.Status)
	assert.True(t, bal.Balance.Equal(d("81")))

	_, err = f.uc.RecordPayment(ctx, scopeC1, inv.ID, sales.RecordPaymentInput{Amount: d("81"), Method: "tarjeta"})
	require.NoError(t, err)
	bal, err = f.uc.InvoiceBalance(ctx, scopeC1, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePagada, bal.Invoice.Status)
	assert.True(t, bal.Balance.IsZero())
}

func TestFlujo_ClienteFiscalUsaSerieB01(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q := f.quote(t, "emp", sales.QuotationLine{ProductID: prodA, Quantity: 1})
	order, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	require.NoError(t, err)
	inv, err := f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "B0100000001", inv.NCF)
	assert.Equal(t, int64(1), f.store.Company("c1").NCFFinal)
}

// ─── CreateQuotation ─────────────────────────────────────────────────────────

func TestCreateQuotation_OmiteLineasInvalidas(t *testing.T) {
	f := setup(t)

	q := f.quote(t, "cf",
		sales.QuotationLine{ProductID: "no-es-uuid", Quantity: 1},
		sales.QuotationLine{ProductID: prodA, Quantity: 0},
		sales.QuotationLine{ProductID: prodB, Quantity: 3},
	)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "Batata", q.Items[0].Name)
}

func TestCreateQuotation_SinLineasOClienteAjeno(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.uc.CreateQuotation(ctx, scopeC1, sales.CreateQuotationInput{
		ClientID: "cf", WarehouseID: "w1", Lines: []sales.QuotationLine{{ProductID: "x", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateQuotation(ctx, tenant.Scope{CompanyID: "c2", UserID: "u", Role: tenant.RoleSeller}, sales.CreateQuotationInput{
		ClientID: "cf", WarehouseID: "w1", Lines: standardLines(),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "client_id", ve.Field)
}

// ─── ConvertQuotationToOrder ─────────────────────────────────────────────────

func TestConvertQuotation_VencidaNoCambiaNada(t *testing.T) {
	f := setup(t)
	q := f.quote(t, "cf", standardLines()...)

	f.now = f.now.Add(31 * 24 * time.Hour)
	_, err := f.uc.ConvertQuotationToOrder(context.Background(), scopeC1, q.ID, sales.ConvertQuotationInput{})
	var ee *domain.ExpiredError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, q.ID, ee.QuotationID)
	assert.Equal(t, 10, f.store.StockOf(prodA, "w1"))
	assert.Empty(t, f.store.Movements())
}

func TestConvertQuotation_DobleConversionEsConflicto(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.quote(t, "cf", standardLines()...)

	_, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	require.NoError(t, err)
	_, err = f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 8, f.store.StockOf(prodA, "w1"))
}

func TestConvertQuotation_SinStockEsAtomico(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.quote(t, "cf",
		sales.QuotationLine{ProductID: prodA, Quantity: 2},
		sales.QuotationLine{ProductID: prodB, Quantity: 6},
	)

	_, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Batata", ise.ProductName)
	assert.Equal(t, 10, f.store.StockOf(prodA, "w1"))
	assert.Empty(t, f.store.Movements())

	q, err = f.uc.GetQuotation(ctx, scopeC1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuotationVigente, q.Status)
	orders, err := f.uc.ListOrders(ctx, scopeC1, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConvertQuotation_ConcurrenteSoloUnaGana(t *testing.T) {
	f := setup(t)
	q := f.quote(t, "cf", standardLines()...)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.ConvertQuotationToOrder(context.Background(), scopeC1, q.ID, sales.ConvertQuotationInput{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 8, f.store.StockOf(prodA, "w1"))
}

// ─── ConvertOrderToInvoice ───────────────────────────────────────────────────

func TestConvertOrder_ClienteFiscalSinIdentificador(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.quote(t, "sinrnc", standardLines()...)
	order, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	require.NoError(t, err)

	_, err = f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(1), f.store.Company("c1").NCFFiscal, "no se consume NCF")
	assert.Empty(t, f.store.Invoices())
}

func TestConvertOrder_DobleFacturaEsConflicto(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.quote(t, "cf", standardLines()...)
	order, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	require.NoError(t, err)

	_, err = f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	require.NoError(t, err)
	_, err = f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.store.Invoices(), 1)
	assert.Equal(t, int64(2), f.store.Company("c1").NCFFinal)
}

// ─── RecordPayment y lecturas ────────────────────────────────────────────────

func TestRecordPayment_MontoInvalidoYSobrepago(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.quote(t, "cf", sales.QuotationLine{ProductID: prodB, Quantity: 1})
	order, err := f.uc.ConvertQuotationToOrder(ctx, scopeC1, q.ID, sales.ConvertQuotationInput{})
	require.NoError(t, err)
	inv, err := f.uc.ConvertOrderToInvoice(ctx, scopeC1, order.ID)
	require.NoError(t, err)

	_, err = f.uc.RecordPayment(ctx, scopeC1, inv.ID, sales.RecordPaymentInput{Amount: d("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordPayment(ctx, scopeC1, inv.ID, sales.RecordPaymentInput{Amount: d("80")})
	require.NoError(t, err)
	bal, err := f.uc.InvoiceBalance(ctx, scopeC1, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePagada, bal.Invoice.Status)
	assert.True(t, bal.Paid.Equal(d("80")))
	assert.True(t, bal.Balance.IsZero())
}

func TestLecturas_OtraEmpresaNoVe(t *testing.T) {
	f := setup(t)
	q := f.quote(t, "cf", standardLines()...)

	_, err := f.uc.GetQuotation(context.Background(), tenant.Scope{CompanyID: "c2", UserID: "u", Role: tenant.RoleAdmin}, q.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.uc.GetQuotation(context.Background(), tenant.Scope{UserID: "root", Role: tenant.RolePlatformAdmin, Bypass: true}, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
}

func TestListQuotations_VencePrimero(t *testing.T) {
	f := setup(t)
	q := f.quote(t, "cf", standardLines()...)

	f.now = f.now.Add(30*24*time.Hour + time.Minute)
	list, err := f.uc.ListQuotations(context.Background(), scopeC1, repository.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, list.Quotations, 1)
	assert.Equal(t, q.ID, list.Quotations[0].ID)
	assert.Equal(t, entity.QuotationVencida, list.Quotations[0].Status)

	n, err := f.uc.ExpireStaleQuotations(context.Background(), scopeC1)
	require.NoError(t, err)
	assert.Zero(t, n)
}
