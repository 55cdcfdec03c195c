// Package memory implementa todos los puertos de repositorio en memoria.
// Las transacciones copian el estado y lo reemplazan al confirmar; un único mutex
// serializa las transacciones, así que un Run equivale a SERIALIZABLE.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

type stockKey struct {
	productID   string
	warehouseID string
}

type state struct {
	companies     map[string]entity.Company
	clients       map[string]entity.Client
	products      map[string]entity.Product
	warehouses    map[string]entity.Warehouse
	stock         map[stockKey]entity.ProductStock
	movements     []entity.InventoryMovement
	quotations    map[string]entity.Quotation
	orders        map[string]entity.Order
	invoices      map[string]entity.Invoice
	payments      []entity.Payment
	ncfLogs       []entity.NcfLog
	notifications map[string]entity.StockNotification
	exports       map[string]entity.ExportLog
}

func newState() *state {
	return &state{
		companies:     map[string]entity.Company{},
		clients:       map[string]entity.Client{},
		products:      map[string]entity.Product{},
		warehouses:    map[string]entity.Warehouse{},
		stock:         map[stockKey]entity.ProductStock{},
		quotations:    map[string]entity.Quotation{},
		orders:        map[string]entity.Order{},
		invoices:      map[string]entity.Invoice{},
		notifications: map[string]entity.StockNotification{},
		exports:       map[string]entity.ExportLog{},
	}
}

// clone copia superficial; los ítems de documentos nunca se modifican en sitio.
func (s *state) clone() *state {
	return &state{
		companies:     maps.Clone(s.companies),
		clients:       maps.Clone(s.clients),
		products:      maps.Clone(s.products),
		warehouses:    maps.Clone(s.warehouses),
		stock:         maps.Clone(s.stock),
		movements:     slices.Clone(s.movements),
		quotations:    maps.Clone(s.quotations),
		orders:        maps.Clone(s.orders),
		invoices:      maps.Clone(s.invoices),
		payments:      slices.Clone(s.payments),
		ncfLogs:       slices.Clone(s.ncfLogs),
		notifications: maps.Clone(s.notifications),
		exports:       maps.Clone(s.exports),
	}
}

// Store base de datos en memoria.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// handle apunta al estado confirmado (con lock por llamada) o a la copia de una tx.
type handle struct {
	s  *Store
	tx *state
}

func (h handle) do(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return fn(h.s.st)
}

// Run ejecuta fn sobre una copia del estado; la copia reemplaza al estado solo si fn no falla.
// Dentro de fn deben usarse únicamente los repositorios recibidos.
func (s *Store) Run(ctx context.Context, fn func(r repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(reposFor(handle{s: s, tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos devuelve los repositorios fuera de transacción.
func (s *Store) Repos() repository.TxRepos {
	return reposFor(handle{s: s})
}

func reposFor(h handle) repository.TxRepos {
	return repository.TxRepos{
		Companies:  &CompanyRepo{h: h},
		NcfLogs:    &NcfLogRepo{h: h},
		Catalog:    &CatalogRepo{h: h},
		Stock:      &StockRepo{h: h},
		Movements:  &MovementRepo{h: h},
		Quotations: &QuotationRepo{h: h},
		Orders:     &OrderRepo{h: h},
		Invoices:   &InvoiceRepo{h: h},
		Payments:   &PaymentRepo{h: h},
	}
}

// Notifications repositorio de avisos de stock.
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{h: handle{s: s}} }

// ExportLogs repositorio de la bitácora de exportaciones.
func (s *Store) ExportLogs() *ExportLogRepo { return &ExportLogRepo{h: handle{s: s}} }

// Reports repositorio de reportes.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{h: handle{s: s}} }

// ── Carga de datos (catálogo externo y pruebas) ──────────────────────────────

// PutCompany guarda o reemplaza una empresa.
func (s *Store) PutCompany(c entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.companies[c.ID] = c
}

// PutClient guarda o reemplaza un cliente.
func (s *Store) PutClient(c entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.clients[c.ID] = c
}

// PutProduct guarda o reemplaza un producto.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// PutWarehouse guarda o reemplaza un almacén.
func (s *Store) PutWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.warehouses[w.ID] = w
}

// PutStock fija un saldo y recalcula el espejo del producto.
func (s *Store) PutStock(ps entity.ProductStock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[stockKey{ps.ProductID, ps.WarehouseID}] = ps
	syncMirror(s.st, ps.ProductID)
}

// PutInvoice guarda una factura tal cual (datos históricos).
func (s *Store) PutInvoice(inv entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.invoices[inv.ID] = inv
}

// ── Inspección ────────────────────────────────────────────────────────────────

// Company devuelve la empresa confirmada.
func (s *Store) Company(id string) entity.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.companies[id]
}

// Product devuelve el producto confirmado.
func (s *Store) Product(id string) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.products[id]
}

// StockOf saldo confirmado de (producto, almacén).
func (s *Store) StockOf(productID, warehouseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stock[stockKey{productID, warehouseID}].Stock
}

// Movements copia de todos los movimientos confirmados.
func (s *Store) Movements() []entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.movements)
}

// NcfLogs copia de la bitácora de NCF.
func (s *Store) NcfLogs() []entity.NcfLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.ncfLogs)
}

// Invoices copia de todas las facturas confirmadas.
func (s *Store) Invoices() []entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.st.invoices))
}

// AllExportLogs copia de la bitácora de exportaciones.
func (s *Store) AllExportLogs() []entity.ExportLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.st.exports))
}

// AllNotifications copia de los avisos de stock.
func (s *Store) AllNotifications() []entity.StockNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.st.notifications))
}

func syncMirror(st *state, productID string) {
	p, ok := st.products[productID]
	if !ok {
		return
	}
	total := 0
	for k, v := range st.stock {
		if k.productID == productID {
			total += v.Stock
		}
	}
	p.Stock = total
	st.products[productID] = p
}

func inCompany(filter, companyID string) bool {
	return filter == "" || filter == companyID
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
