package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository           = (*CompanyRepo)(nil)
	_ repository.NcfLogRepository            = (*NcfLogRepo)(nil)
	_ repository.CatalogRepository           = (*CatalogRepo)(nil)
	_ repository.StockRepository             = (*StockRepo)(nil)
	_ repository.InventoryMovementRepository = (*MovementRepo)(nil)
	_ repository.NotificationRepository      = (*NotificationRepo)(nil)
)

// CompanyRepo empresas y contadores NCF.
type CompanyRepo struct{ h handle }

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	var out *entity.Company
	err := r.h.do(func(st *state) error {
		if c, ok := st.companies[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria la tx ya tiene acceso exclusivo.
func (r *CompanyRepo) GetForUpdate(ctx context.Context, id string) (*entity.Company, error) {
	return r.GetByID(ctx, id)
}

func (r *CompanyRepo) UpdateCounters(_ context.Context, id string, ncfFinal, ncfFiscal int64) error {
	return r.h.do(func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return nil
		}
		c.NCFFinal = ncfFinal
		c.NCFFiscal = ncfFiscal
		c.UpdatedAt = time.Now()
		st.companies[id] = c
		return nil
	})
}

// NcfLogRepo bitácora de contadores.
type NcfLogRepo struct{ h handle }

func (r *NcfLogRepo) Create(_ context.Context, log *entity.NcfLog) error {
	return r.h.do(func(st *state) error {
		st.ncfLogs = append(st.ncfLogs, *log)
		return nil
	})
}

func (r *NcfLogRepo) List(_ context.Context, companyID string, limit, offset int) ([]*entity.NcfLog, error) {
	var out []*entity.NcfLog
	err := r.h.do(func(st *state) error {
		for i := len(st.ncfLogs) - 1; i >= 0; i-- {
			l := st.ncfLogs[i]
			if inCompany(companyID, l.CompanyID) {
				out = append(out, &l)
			}
		}
		return nil
	})
	return page(out, limit, offset), err
}

// CatalogRepo lectura de productos, clientes y almacenes.
type CatalogRepo struct{ h handle }

func (r *CatalogRepo) ResolveProducts(_ context.Context, companyID string, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(st *state) error {
		seen := map[string]bool{}
		for _, id := range ids {
			p, ok := st.products[id]
			if !ok || seen[id] || !inCompany(companyID, p.CompanyID) {
				continue
			}
			seen[id] = true
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) GetProduct(_ context.Context, companyID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		if p, ok := st.products[id]; ok && inCompany(companyID, p.CompanyID) {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) GetProductByCode(_ context.Context, companyID, code string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if p.Code == code && inCompany(companyID, p.CompanyID) {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) GetClient(_ context.Context, companyID, id string) (*entity.Client, error) {
	var out *entity.Client
	err := r.h.do(func(st *state) error {
		if c, ok := st.clients[id]; ok && inCompany(companyID, c.CompanyID) {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) GetWarehouse(_ context.Context, companyID, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.h.do(func(st *state) error {
		if w, ok := st.warehouses[id]; ok && inCompany(companyID, w.CompanyID) {
			out = &w
		}
		return nil
	})
	return out, err
}

// StockRepo saldos por almacén.
type StockRepo struct{ h handle }

func (r *StockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.ProductStock, error) {
	var out entity.ProductStock
	err := r.h.do(func(st *state) error {
		if s, ok := st.stock[stockKey{productID, warehouseID}]; ok {
			out = s
			return nil
		}
		out = entity.ProductStock{ProductID: productID, WarehouseID: warehouseID}
		if p, ok := st.products[productID]; ok {
			out.CompanyID = p.CompanyID
		}
		return nil
	})
	return &out, err
}

func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.ProductStock, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *StockRepo) Upsert(_ context.Context, s *entity.ProductStock) error {
	return r.h.do(func(st *state) error {
		st.stock[stockKey{s.ProductID, s.WarehouseID}] = *s
		return nil
	})
}

func (r *StockRepo) SyncProductMirror(_ context.Context, productID string) error {
	return r.h.do(func(st *state) error {
		syncMirror(st, productID)
		return nil
	})
}

func (r *StockRepo) ListLow(_ context.Context, companyID string) ([]entity.LowStockItem, error) {
	var out []entity.LowStockItem
	err := r.h.do(func(st *state) error {
		for _, s := range st.stock {
			if !s.IsLow() || !inCompany(companyID, s.CompanyID) {
				continue
			}
			p := st.products[s.ProductID]
			w := st.warehouses[s.WarehouseID]
			out = append(out, entity.LowStockItem{
				CompanyID:     s.CompanyID,
				ProductID:     s.ProductID,
				ProductCode:   p.Code,
				ProductName:   p.Name,
				WarehouseID:   s.WarehouseID,
				WarehouseName: w.Name,
				Stock:         s.Stock,
				MinStock:      s.MinStock,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, err
}

// MovementRepo movimientos (solo inserción).
type MovementRepo struct{ h handle }

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.h.do(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.h.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			switch {
			case !inCompany(f.CompanyID, m.CompanyID),
				f.ProductID != "" && m.ProductID != f.ProductID,
				f.WarehouseID != "" && m.WarehouseID != f.WarehouseID,
				f.ReferenceID != "" && m.ReferenceID != f.ReferenceID,
				f.From != nil && m.CreatedAt.Before(*f.From),
				f.To != nil && m.CreatedAt.After(*f.To):
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	return page(out, f.Limit, f.Offset), err
}

// NotificationRepo avisos de stock bajo.
type NotificationRepo struct{ h handle }

func (r *NotificationRepo) GetOpen(_ context.Context, companyID, productID string) (*entity.StockNotification, error) {
	var out *entity.StockNotification
	err := r.h.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.CompanyID == companyID && n.ProductID == productID && n.Open() {
				out = &n
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *NotificationRepo) ListOpen(_ context.Context, companyID string) ([]*entity.StockNotification, error) {
	var out []*entity.StockNotification
	err := r.h.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.Open() && inCompany(companyID, n.CompanyID) {
				out = append(out, &n)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *entity.StockNotification) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}

func (r *NotificationRepo) Create(_ context.Context, n *entity.StockNotification) error {
	return r.h.do(func(st *state) error {
		for _, existing := range st.notifications {
			if existing.CompanyID == n.CompanyID && existing.ProductID == n.ProductID && existing.Open() {
				return &domain.DuplicateError{Resource: "aviso de stock", Value: n.ProductID}
			}
		}
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *NotificationRepo) Close(_ context.Context, id string, at time.Time) error {
	return r.h.do(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || !n.Open() {
			return nil
		}
		n.ClosedAt = &at
		st.notifications[id] = n
		return nil
	})
}
