// Package inventory implementa el libro de inventario: saldos por (producto, almacén)
// y el registro inmutable de movimientos. Todo cambio de saldo pasa por aquí.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// LedgerUseCase registra entradas, salidas, ajustes, traslados e importaciones de forma
// transaccional con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type LedgerUseCase struct {
	txRunner      ports.TxRunner
	catalog       repository.CatalogRepository
	stock         repository.StockRepository
	movements     repository.InventoryMovementRepository
	notifications repository.NotificationRepository
	notifier      ports.Notifier
	log           *logger.Logger
	now           func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner ports.TxRunner,
	catalog repository.CatalogRepository,
	stock repository.StockRepository,
	movements repository.InventoryMovementRepository,
	notifications repository.NotificationRepository,
	notifier ports.Notifier,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:      txRunner,
		catalog:       catalog,
		stock:         stock,
		movements:     movements,
		notifications: notifications,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *LedgerUseCase) WithClock(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// AdjustInput movimiento manual sobre un almacén.
// entrada/salida: Quantity > 0. ajuste: Quantity es el saldo final (>= 0).
type AdjustInput struct {
	ProductID   string
	WarehouseID string
	Type        string
	Quantity    int
	Actor       string
}

// TransferInput traslado entre dos almacenes de la misma empresa.
type TransferInput struct {
	ProductID string
	OriginID  string
	DestID    string
	Quantity  int
	Actor     string
}

// Debit línea a descontar dentro de la transacción de otro caso de uso.
type Debit struct {
	ProductID   string
	ProductName string
	Quantity    int
}

// Adjust aplica una entrada, salida o ajuste absoluto y registra exactamente un movimiento.
func (uc *LedgerUseCase) Adjust(ctx context.Context, scope tenant.Scope, in AdjustInput) (*entity.InventoryMovement, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if !entity.ValidMovementType(in.Type) {
		return nil, domain.NewValidationError("type", "tipo de movimiento inválido (entrada, salida, ajuste)")
	}
	if in.Type == entity.MovementAjuste && in.Quantity < 0 {
		return nil, domain.NewValidationError("quantity", "el ajuste no puede dejar stock negativo")
	}
	if in.Type != entity.MovementAjuste && in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	product, err := uc.resolveProduct(ctx, companyID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.resolveWarehouse(ctx, companyID, in.WarehouseID); err != nil {
		return nil, err
	}

	now := uc.now()
	var mov *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		s, err := r.Stock.GetForUpdate(ctx, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		s.CompanyID = companyID

		qty := in.Quantity
		switch in.Type {
		case entity.MovementEntrada:
			s.Stock += in.Quantity
		case entity.MovementSalida:
			if s.Stock < in.Quantity {
				return &domain.InsufficientStockError{
					ProductID: product.ID, ProductName: product.Name, WarehouseID: in.WarehouseID,
					Requested: in.Quantity, Available: s.Stock,
				}
			}
			s.Stock -= in.Quantity
		case entity.MovementAjuste:
			qty = abs(in.Quantity - s.Stock)
			s.Stock = in.Quantity
		}
		s.UpdatedAt = now
		if err := r.Stock.Upsert(ctx, s); err != nil {
			return err
		}
		if err := r.Stock.SyncProductMirror(ctx, in.ProductID); err != nil {
			return err
		}
		mov = &entity.InventoryMovement{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			ProductID:     in.ProductID,
			WarehouseID:   in.WarehouseID,
			Quantity:      qty,
			Type:          in.Type,
			ReferenceType: entity.ReferenceManual,
			ExecutedBy:    in.Actor,
			CreatedAt:     now,
		}
		mov.ReferenceID = mov.ID
		return r.Movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// Transfer salida en origen y entrada en destino, con un reference_id común.
func (uc *LedgerUseCase) Transfer(ctx context.Context, scope tenant.Scope, in TransferInput) ([]*entity.InventoryMovement, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if in.OriginID == "" || in.DestID == "" || in.OriginID == in.DestID {
		return nil, domain.NewValidationError("dest_id", "origen y destino deben ser almacenes distintos")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	product, err := uc.resolveProduct(ctx, companyID, in.ProductID)
	if err != nil {
		return nil, err
	}
	for _, wh := range []string{in.OriginID, in.DestID} {
		if _, err := uc.resolveWarehouse(ctx, companyID, wh); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	refID := uuid.New().String()
	var out []*entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		// Bloqueo en orden fijo de almacén para no cruzarse con un traslado inverso.
		locked := map[string]*entity.ProductStock{}
		whs := []string{in.OriginID, in.DestID}
		sort.Strings(whs)
		for _, wh := range whs {
			s, err := r.Stock.GetForUpdate(ctx, in.ProductID, wh)
			if err != nil {
				return err
			}
			s.CompanyID = companyID
			locked[wh] = s
		}
		origin, dest := locked[in.OriginID], locked[in.DestID]
		if origin.Stock < in.Quantity {
			return &domain.InsufficientStockError{
				ProductID: product.ID, ProductName: product.Name, WarehouseID: in.OriginID,
				Requested: in.Quantity, Available: origin.Stock,
			}
		}
		origin.Stock -= in.Quantity
		dest.Stock += in.Quantity
		origin.UpdatedAt, dest.UpdatedAt = now, now
		for _, s := range []*entity.ProductStock{origin, dest} {
			if err := r.Stock.Upsert(ctx, s); err != nil {
				return err
			}
		}

		for _, leg := range []struct{ wh, typ string }{
			{in.OriginID, entity.MovementSalida},
			{in.DestID, entity.MovementEntrada},
		} {
			mov := &entity.InventoryMovement{
				ID:            uuid.New().String(),
				CompanyID:     companyID,
				ProductID:     in.ProductID,
				WarehouseID:   leg.wh,
				Quantity:      in.Quantity,
				Type:          leg.typ,
				ReferenceType: entity.ReferenceTransfer,
				ReferenceID:   refID,
				ExecutedBy:    in.Actor,
				CreatedAt:     now,
			}
			if err := r.Movements.Create(ctx, mov); err != nil {
				return err
			}
			out = append(out, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DebitInTx descuenta varias líneas de un almacén usando los repositorios de la transacción del caller.
// Verifica todas las líneas contra filas bloqueadas antes de descontar cualquiera; si una no
// alcanza devuelve InsufficientStockError y no escribe nada. Registra una salida por línea.
func (uc *LedgerUseCase) DebitInTx(
	ctx context.Context,
	r repository.TxRepos,
	companyID, warehouseID string,
	lines []Debit,
	referenceType, referenceID, actor string,
	now time.Time,
) error {
	need := map[string]int{}
	names := map[string]string{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return domain.NewValidationError("quantity", fmt.Sprintf("cantidad inválida para %s", l.ProductName))
		}
		need[l.ProductID] += l.Quantity
		names[l.ProductID] = l.ProductName
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// 1) Bloquear y verificar todo.
	locked := make(map[string]*entity.ProductStock, len(ids))
	for _, id := range ids {
		s, err := r.Stock.GetForUpdate(ctx, id, warehouseID)
		if err != nil {
			return err
		}
		if s.Stock < need[id] {
			return &domain.InsufficientStockError{
				ProductID: id, ProductName: names[id], WarehouseID: warehouseID,
				Requested: need[id], Available: s.Stock,
			}
		}
		s.CompanyID = companyID
		locked[id] = s
	}

	// 2) Descontar y registrar.
	for _, id := range ids {
		s := locked[id]
		s.Stock -= need[id]
		s.UpdatedAt = now
		if err := r.Stock.Upsert(ctx, s); err != nil {
			return err
		}
		if err := r.Stock.SyncProductMirror(ctx, id); err != nil {
			return err
		}
	}
	for _, l := range lines {
		mov := &entity.InventoryMovement{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			ProductID:     l.ProductID,
			WarehouseID:   warehouseID,
			Quantity:      l.Quantity,
			Type:          entity.MovementSalida,
			ReferenceType: referenceType,
			ReferenceID:   referenceID,
			ExecutedBy:    actor,
			CreatedAt:     now,
		}
		if err := r.Movements.Create(ctx, mov); err != nil {
			return err
		}
	}
	return nil
}

// SetMinStock cambia el stock mínimo de un producto en un almacén. No genera movimiento.
func (uc *LedgerUseCase) SetMinStock(ctx context.Context, scope tenant.Scope, productID, warehouseID string, minStock int) (*entity.ProductStock, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if minStock < 0 {
		return nil, domain.NewValidationError("min_stock", "el stock mínimo no puede ser negativo")
	}
	if _, err := uc.resolveProduct(ctx, companyID, productID); err != nil {
		return nil, err
	}
	if _, err := uc.resolveWarehouse(ctx, companyID, warehouseID); err != nil {
		return nil, err
	}
	var out *entity.ProductStock
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		s, err := r.Stock.GetForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		s.CompanyID = companyID
		s.MinStock = minStock
		s.UpdatedAt = uc.now()
		out = s
		return r.Stock.Upsert(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Movements historial de movimientos dentro del alcance.
func (uc *LedgerUseCase) Movements(ctx context.Context, scope tenant.Scope, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	f.CompanyID = scope.Filter()
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	return uc.movements.List(ctx, f)
}

func (uc *LedgerUseCase) resolveProduct(ctx context.Context, companyID, id string) (*entity.Product, error) {
	p, err := uc.catalog.GetProduct(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Resource: "producto", ID: id}
	}
	return p, nil
}

func (uc *LedgerUseCase) resolveWarehouse(ctx context.Context, companyID, id string) (*entity.Warehouse, error) {
	w, err := uc.catalog.GetWarehouse(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, &domain.NotFoundError{Resource: "almacén", ID: id}
	}
	return w, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
