package export_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// ─── Dobles de prueba ────────────────────────────────────────────────────────

type pipeTable struct{ w io.Writer }

func (t *pipeTable) WriteRow(cells []any) error {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	_, err := fmt.Fprintln(t.w, strings.Join(parts, "|"))
	return err
}

func (t *pipeTable) Close() error { return nil }

type pipeEncoder struct{}

func (pipeEncoder) NewTable(_ string, w io.Writer, headers []string) (export.TableWriter, error) {
	t := &pipeTable{w: w}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "|")); err != nil {
		return nil, err
	}
	return t, nil
}

type textRenderer struct{}

func (textRenderer) RenderTable(_ context.Context, w io.Writer, doc export.TableDocument) error {
	_, err := fmt.Fprintf(w, "%s\n%d\n", doc.Title, len(doc.Rows))
	return err
}

type memFile struct {
	bytes.Buffer
	store *memFiles
	name  string
}

func (f *memFile) Close() error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.files[f.name] = f.String()
	return nil
}

type memFiles struct {
	mu      sync.Mutex
	files   map[string]string
	removed []string
	fail    error
}

func (m *memFiles) Create(_ context.Context, name string) (io.WriteCloser, string, error) {
	if m.fail != nil {
		return nil, "", m.fail
	}
	return &memFile{store: m, name: name}, "mem://" + name, nil
}

func (m *memFiles) Remove(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := strings.TrimPrefix(location, "mem://")
	delete(m.files, name)
	m.removed = append(m.removed, name)
	return nil
}

// brokenEncoder escribe la cabecera y falla en la fila n.
type brokenEncoder struct{ n int }

type brokenTable struct {
	pipeTable
	left int
}

func (t *brokenTable) WriteRow(cells []any) error {
	if t.left == 0 {
		return errors.New("conexión perdida leyendo facturas")
	}
	t.left--
	return t.pipeTable.WriteRow(cells)
}

func (e brokenEncoder) NewTable(_ string, w io.Writer, headers []string) (export.TableWriter, error) {
	if _, err := fmt.Fprintln(w, strings.Join(headers, "|")); err != nil {
		return nil, err
	}
	return &brokenTable{pipeTable: pipeTable{w: w}, left: e.n}, nil
}

type captureDispatcher struct {
	jobs []export.Job
	fail error
}

func (c *captureDispatcher) Submit(_ context.Context, job export.Job) error {
	if c.fail != nil {
		return c.fail
	}
	c.jobs = append(c.jobs, job)
	return nil
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

var scopeC1 = tenant.Scope{CompanyID: "c1", UserID: "admin-1", Role: tenant.RoleAdmin}

func seed(store *memory.Store, n int) {
	store.PutClient(entity.Client{ID: "cl", CompanyID: "c1", Name: "Cliente Uno"})
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		store.PutInvoice(entity.Invoice{
			ID: fmt.Sprintf("inv-%02d", i), CompanyID: "c1", ClientID: "cl", NCF: fmt.Sprintf("B02%08d", i+1),
			InvoiceType: entity.SeriesFinal, Status: entity.InvoicePendiente, Date: base.AddDate(0, 0, i),
			Total: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(100),
			Items: []entity.LineItem{{ID: "l", Category: "Granos", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
		})
	}
}

func newPipeline(store *memory.Store, d export.Dispatcher, maxRows int) *export.PipelineUseCase {
	return export.NewPipelineUseCase(store.ExportLogs(), store.Reports(), pipeEncoder{}, textRenderer{}, d, maxRows, logger.Nop())
}

// ─── RequestExport ───────────────────────────────────────────────────────────

func TestRequestExport_EnLineaDejaFilaTerminal(t *testing.T) {
	store := memory.NewStore()
	seed(store, 3)
	uc := newPipeline(store, &captureDispatcher{}, 10)

	res, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatCSV, Kind: export.KindDetalle})
	require.NoError(t, err)
	assert.True(t, res.Inline)
	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	assert.Len(t, lines, 4, "cabecera + 3 filas")
	assert.Contains(t, lines[1], "B0200000003", "más reciente primero")

	logs := store.AllExportLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ExportSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].RowCount)
}

func TestRequestExport_DemasiadasFilasSinAsync(t *testing.T) {
	store := memory.NewStore()
	seed(store, 5)
	d := &captureDispatcher{}
	uc := newPipeline(store, d, 4)

	_, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatXLSX})
	var tm *domain.TooManyRowsError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, 5, tm.Count)
	assert.Empty(t, d.jobs)
	for _, l := range store.AllExportLogs() {
		assert.Equal(t, entity.ExportFail, l.Status)
	}
}

func TestRequestExport_PDFAsyncTambienRespetaElTope(t *testing.T) {
	store := memory.NewStore()
	seed(store, 5)
	d := &captureDispatcher{}
	uc := newPipeline(store, d, 4)

	_, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatPDF, Async: true})
	var tm *domain.TooManyRowsError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, 5, tm.Count)
	assert.Equal(t, 4, tm.Limit)
	assert.Empty(t, d.jobs)
	logs := store.AllExportLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ExportFail, logs[0].Status)

	// dentro del tope se encola; CSV asíncrono no cuenta
	uc = newPipeline(store, d, 10)
	res, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatPDF, Async: true})
	require.NoError(t, err)
	assert.Equal(t, entity.ExportQueued, res.Log.Status)
	uc = newPipeline(store, d, 1)
	_, err = uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.NoError(t, err)
	assert.Len(t, d.jobs, 2)
}

func TestRequestExport_ResumenYPDF(t *testing.T) {
	store := memory.NewStore()
	seed(store, 2)
	uc := newPipeline(store, &captureDispatcher{}, 10)

	res, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatPDF, Kind: export.KindResumen})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, "Reporte de ventas (resumen)\n1\n", string(res.Data))
}

func TestRequestExport_FormatoInvalido(t *testing.T) {
	uc := newPipeline(memory.NewStore(), &captureDispatcher{}, 10)

	_, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: "docx"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestExport_AsyncIdaYVuelta(t *testing.T) {
	store := memory.NewStore()
	seed(store, 5)
	d := &captureDispatcher{}
	files := &memFiles{files: map[string]string{}}
	uc := newPipeline(store, d, 1)
	runner := export.NewRunner(store.ExportLogs(), store.Reports(), pipeEncoder{}, textRenderer{}, files, logger.Nop())
	ctx := context.Background()

	res, err := uc.RequestExport(ctx, scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.NoError(t, err)
	assert.False(t, res.Inline)
	assert.Equal(t, entity.ExportQueued, res.Log.Status)
	require.Len(t, d.jobs, 1)

	job, err := uc.GetJob(ctx, scopeC1, res.Log.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExportQueued, job.Status)

	require.NoError(t, runner.Process(ctx, d.jobs[0]))
	job, err = uc.GetJob(ctx, scopeC1, res.Log.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExportSuccess, job.Status)
	assert.Equal(t, 5, job.RowCount)
	assert.True(t, strings.HasPrefix(job.FilePath, "mem://c1/"))
	assert.Len(t, files.files, 1)

	// Un segundo procesamiento no cambia el estado terminal.
	files.fail = errors.New("disco lleno")
	require.NoError(t, runner.Process(ctx, d.jobs[0]))
	job, err = uc.GetJob(ctx, scopeC1, res.Log.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExportSuccess, job.Status)
}

func TestRequestExport_AsyncFalloDeDestinoQuedaEnFail(t *testing.T) {
	store := memory.NewStore()
	seed(store, 2)
	d := &captureDispatcher{}
	files := &memFiles{files: map[string]string{}, fail: errors.New("bucket inexistente")}
	uc := newPipeline(store, d, 10)
	runner := export.NewRunner(store.ExportLogs(), store.Reports(), pipeEncoder{}, textRenderer{}, files, logger.Nop())

	res, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.NoError(t, err)
	require.NoError(t, runner.Process(context.Background(), d.jobs[0]))

	job, err := uc.GetJob(context.Background(), scopeC1, res.Log.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExportFail, job.Status)
	assert.Contains(t, job.Message, "bucket inexistente")
}

func TestProcess_FalloAMitadBorraElArchivo(t *testing.T) {
	store := memory.NewStore()
	seed(store, 3)
	d := &captureDispatcher{}
	files := &memFiles{files: map[string]string{}}
	uc := newPipeline(store, d, 10)
	runner := export.NewRunner(store.ExportLogs(), store.Reports(), brokenEncoder{n: 1}, textRenderer{}, files, logger.Nop())
	ctx := context.Background()

	res, err := uc.RequestExport(ctx, scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.NoError(t, err)
	require.NoError(t, runner.Process(ctx, d.jobs[0]))

	job, err := uc.GetJob(ctx, scopeC1, res.Log.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExportFail, job.Status)
	assert.Contains(t, job.Message, "conexión perdida")
	assert.Empty(t, job.FilePath)
	assert.Empty(t, files.files)
	require.Len(t, files.removed, 1)
	assert.True(t, strings.HasPrefix(files.removed[0], "c1/"))
}

func TestProcess_EntregaRepetidaDeTrabajoCerradoNoRegenera(t *testing.T) {
	store := memory.NewStore()
	seed(store, 2)
	d := &captureDispatcher{}
	uc := newPipeline(store, d, 10)
	ctx := context.Background()

	_, err := uc.RequestExport(ctx, scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.NoError(t, err)
	first := &memFiles{files: map[string]string{}}
	require.NoError(t, export.NewRunner(store.ExportLogs(), store.Reports(), pipeEncoder{}, textRenderer{}, first, logger.Nop()).
		Process(ctx, d.jobs[0]))
	require.Len(t, first.files, 1)

	second := &memFiles{files: map[string]string{}}
	require.NoError(t, export.NewRunner(store.ExportLogs(), store.Reports(), pipeEncoder{}, textRenderer{}, second, logger.Nop()).
		Process(ctx, d.jobs[0]))
	assert.Empty(t, second.files)
	assert.Empty(t, second.removed)
}

func TestRequestExport_SubmitFallidoMarcaFail(t *testing.T) {
	store := memory.NewStore()
	uc := newPipeline(store, &captureDispatcher{fail: errors.New("cola caída")}, 10)

	_, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatCSV, Async: true})
	require.Error(t, err)
	logs := store.AllExportLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ExportFail, logs[0].Status)
}

func TestGetJob_OtraEmpresa(t *testing.T) {
	store := memory.NewStore()
	seed(store, 1)
	uc := newPipeline(store, &captureDispatcher{}, 10)
	res, err := uc.RequestExport(context.Background(), scopeC1, export.ExportRequest{Format: export.FormatCSV})
	require.NoError(t, err)

	_, err = uc.GetJob(context.Background(), tenant.Scope{CompanyID: "c2", UserID: "x", Role: tenant.RoleAdmin}, res.Log.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
