package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/notify"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/queue"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/storage"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/tabular"
	apphttp "github.com/jhoicas/Ventas-api/internal/interfaces/http"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	otherCompanyID = "00000000-0000-0000-0000-000000000009"
	prodArroz      = "00000000-0000-0000-0000-0000000000a1"
	prodAceite     = "00000000-0000-0000-0000-0000000000a2"
	warehouseMain  = "00000000-0000-0000-0000-0000000000b1"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	store.PutCompany(entity.Company{ID: testCompanyID, Name: "Colmado Central", RNC: "131000001", NCFFinal: 1, NCFFiscal: 1})
	store.PutCompany(entity.Company{ID: otherCompanyID, Name: "Otra Empresa"})
	store.PutClient(entity.Client{ID: "cli-final", CompanyID: testCompanyID, Name: "Consumidor", IsFinalConsumer: true})
	store.PutClient(entity.Client{ID: "cli-srl", CompanyID: testCompanyID, Name: "Ferretería SRL", Identifier: "101000002"})
	store.PutWarehouse(entity.Warehouse{ID: warehouseMain, CompanyID: testCompanyID, Name: "Principal"})
	store.PutProduct(entity.Product{ID: prodArroz, CompanyID: testCompanyID, Code: "ARZ", Name: "Arroz", Price: decimal.NewFromInt(100), HasITBIS: true, Category: "Granos"})
	store.PutProduct(entity.Product{ID: prodAceite, CompanyID: testCompanyID, Code: "ACE", Name: "Aceite", Price: decimal.NewFromInt(250), Category: "Aceites"})
	store.PutStock(entity.ProductStock{CompanyID: testCompanyID, ProductID: prodArroz, WarehouseID: warehouseMain, Stock: 10})
	store.PutStock(entity.ProductStock{CompanyID: testCompanyID, ProductID: prodAceite, WarehouseID: warehouseMain, Stock: 3})

	log := logger.Nop()
	r := store.Repos()
	notifier := notify.NewLogNotifier(log)
	renderer := pdf.NewMarotoRenderer()
	ledger := inventory.NewLedgerUseCase(store, r.Catalog, r.Stock, r.Movements, store.Notifications(), notifier, log)
	alloc := fiscal.NewAllocatorUseCase(store, r.Companies, r.NcfLogs, log)
	workflow := sales.NewWorkflowUseCase(store, r, ledger, alloc, ledger, renderer, notifier, notify.NewLogMailer(log), sales.DefaultSettings(), log)

	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	runner := export.NewRunner(store.ExportLogs(), store.Reports(), tabular.Encoder{}, renderer, files, log)
	jobs := queue.NewInProcess(runner.Process, 1, 4, log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = jobs.Shutdown(ctx)
	})
	pipeline := export.NewPipelineUseCase(store.ExportLogs(), store.Reports(), tabular.Encoder{}, renderer, jobs, 1000, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Workflow:    workflow,
		Ledger:      ledger,
		Allocator:   alloc,
		Reports:     reports.NewReportUseCase(store.Reports(), r.Catalog),
		Exports:     pipeline,
		TableRender: renderer,
		ExportFiles: files,
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

// ─── Flujo de venta ─────────────────────────────────────────────────────────

func TestAPI_FlujoCotizacionPedidoFacturaAbono(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodPost, "/api/quotations", tenant.RoleSeller, map[string]any{
		"client_id":      "cli-final",
		"warehouse_id":   warehouseMain,
		"payment_method": "efectivo",
		"items": []map[string]any{
			{"product_id": prodArroz, "quantity": 2},
			{"product_id": prodAceite, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	q := decodeJSON[map[string]any](t, body)
	assert.Equal(t, entity.QuotationVigente, q["status"])
	qID := q["id"].(string)

	resp, body = f.call(t, http.MethodPost, "/api/quotations/"+qID+"/convert", tenant.RoleSeller, map[string]any{"customer_po": "OC-15"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	order := decodeJSON[map[string]any](t, body)
	assert.Equal(t, entity.OrderPendiente, order["status"])
	assert.Equal(t, 8, f.store.StockOf(prodArroz, warehouseMain))

	resp, body = f.call(t, http.MethodPost, "/api/quotations/"+qID+"/convert", tenant.RoleSeller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "una cotización convertida no se convierte dos veces: %s", body)

	resp, body = f.call(t, http.MethodPost, "/api/orders/"+order["id"].(string)+"/invoice", tenant.RoleSeller, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	inv := decodeJSON[map[string]any](t, body)
	assert.True(t, strings.HasPrefix(inv["ncf"].(string), "B02"), "consumidor final usa la serie B02")
	invID := inv["id"].(string)
	total := decimal.RequireFromString(inv["total"].(string))

	resp, body = f.call(t, http.MethodPost, "/api/invoices/"+invID+"/payments", tenant.RoleSeller, map[string]any{
		"amount": total.String(),
		"method": "efectivo",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/invoices/"+invID, tenant.RoleSeller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeJSON[map[string]any](t, body)
	assert.Equal(t, entity.InvoicePagada, detail["status"])
	assert.True(t, decimal.RequireFromString(detail["balance"].(string)).IsZero())

	resp, body = f.call(t, http.MethodGet, "/api/invoices/"+invID+"/pdf", tenant.RoleSeller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAPI_ConversionSinStockRetorna409ConProducto(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodPost, "/api/quotations", tenant.RoleSeller, map[string]any{
		"client_id":    "cli-final",
		"warehouse_id": warehouseMain,
		"items":        []map[string]any{{"product_id": prodAceite, "quantity": 5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	qID := decodeJSON[map[string]any](t, body)["id"].(string)

	resp, body = f.call(t, http.MethodPost, "/api/quotations/"+qID+"/convert", tenant.RoleSeller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decodeJSON[map[string]any](t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody["code"])
	assert.Equal(t, prodAceite, errBody["product_id"])
	assert.Equal(t, 3, f.store.StockOf(prodAceite, warehouseMain), "el stock no cambia si la conversión falla")
}

func TestAPI_CuerpoInvalidoRetorna400(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodPost, "/api/quotations", tenant.RoleSeller, map[string]any{"client_id": "cli-final"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

// ─── Alcance de empresa ─────────────────────────────────────────────────────

func TestAPI_UsuarioNoPuedeElegirOtraEmpresa(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodGet, "/api/quotations", tenant.RoleAdmin, nil, apphttp.HeaderCompanyID, otherCompanyID)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestAPI_SuperadminEligeEmpresaConCabecera(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodGet, "/api/settings/ncf", tenant.RolePlatformAdmin, nil, apphttp.HeaderCompanyID, otherCompanyID)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

// ─── Contadores NCF ─────────────────────────────────────────────────────────

func TestAPI_EdicionNCFSoloAdmin(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.call(t, http.MethodPut, "/api/settings/ncf", tenant.RoleSeller, map[string]any{"ncf_final": 50})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPut, "/api/settings/ncf", tenant.RoleAdmin, map[string]any{"ncf_final": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(50), f.store.Company(testCompanyID).NCFFinal)

	resp, _ = f.call(t, http.MethodPut, "/api/settings/ncf", tenant.RoleAdmin, map[string]any{"ncf_final": 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "los contadores no retroceden")

	resp, body = f.call(t, http.MethodGet, "/api/settings/ncf/logs", tenant.RoleSeller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decodeJSON[[]map[string]any](t, body)
	require.Len(t, logs, 1)
	assert.EqualValues(t, 50, logs[0]["new_final"])
}

// ─── Inventario ─────────────────────────────────────────────────────────────

func TestAPI_ImportacionConFilaMalaRetornaDetalle(t *testing.T) {
	f := newAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("warehouse_id", warehouseMain))
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("code,stock\nARZ,40\nNOEXISTE,5\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", tokenForRole(t, tenant.RoleWarehouse))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out apphttp.ImportErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "IMPORT_REJECTED", out.Code)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, 3, out.Rows[0].Line)
	assert.Equal(t, 10, f.store.StockOf(prodArroz, warehouseMain), "todo o nada")
}

func TestAPI_MinimoYAvisoDeStockBajo(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodPut, "/api/inventory/stock/min", tenant.RoleWarehouse, map[string]any{
		"product_id": prodAceite, "warehouse_id": warehouseMain, "min_stock": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, true, decodeJSON[map[string]any](t, body)["low"])

	resp, body = f.call(t, http.MethodGet, "/api/inventory/low-stock", tenant.RoleWarehouse, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeJSON[[]entity.LowStockItem](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, prodAceite, items[0].ProductID)
}

// ─── Reportes y exportaciones ───────────────────────────────────────────────

func TestAPI_EstadoDeCuentaEnPDF(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodGet, "/api/reports/statement/cli-srl?format=pdf", tenant.RoleSeller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAPI_ExportacionesSoloAdmin(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.call(t, http.MethodPost, "/api/exports", tenant.RoleSeller, map[string]any{"format": "csv"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, "/api/exports", tenant.RoleAdmin, map[string]any{"format": "csv", "kind": "detalle"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.NotEmpty(t, resp.Header.Get("X-Export-ID"))
}

func TestAPI_ExportacionAsincronaTerminaEnSuccess(t *testing.T) {
	f := newAPI(t)

	resp, body := f.call(t, http.MethodPost, "/api/exports", tenant.RoleAdmin, map[string]any{"format": "xlsx", "kind": "resumen", "async": true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	job := decodeJSON[map[string]any](t, body)
	assert.Equal(t, entity.ExportQueued, job["status"])

	assert.Eventually(t, func() bool {
		resp, body := f.call(t, http.MethodGet, "/api/exports/"+job["id"].(string), tenant.RoleAdmin, nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return decodeJSON[map[string]any](t, body)["status"] == entity.ExportSuccess
	}, 5*time.Second, 20*time.Millisecond)

	resp, body = f.call(t, http.MethodGet, "/api/exports/"+job["id"].(string)+"/download", tenant.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "un xlsx es un zip")
}

func TestAPI_RutaSinTokenRetorna401(t *testing.T) {
	f := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quotations", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
