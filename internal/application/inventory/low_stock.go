package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

type productKey struct {
	companyID string
	productID string
}

// LowStock devuelve las filas con stock en o bajo el mínimo y sincroniza los avisos:
// abre uno por (empresa, producto) si no hay uno abierto y cierra los que ya no aplican.
// El Notifier solo se llama para avisos nuevos.
func (uc *LedgerUseCase) LowStock(ctx context.Context, scope tenant.Scope) ([]entity.LowStockItem, error) {
	items, err := uc.stock.ListLow(ctx, scope.Filter())
	if err != nil {
		return nil, err
	}

	var order []productKey
	grouped := map[productKey][]entity.LowStockItem{}
	for _, it := range items {
		k := productKey{it.CompanyID, it.ProductID}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], it)
	}

	now := uc.now()
	var created []*entity.StockNotification
	for _, k := range order {
		open, err := uc.notifications.GetOpen(ctx, k.companyID, k.productID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			continue
		}
		n := &entity.StockNotification{
			ID:        uuid.New().String(),
			CompanyID: k.companyID,
			ProductID: k.productID,
			Message:   lowStockMessage(grouped[k]),
			CreatedAt: now,
		}
		if err := uc.notifications.Create(ctx, n); err != nil {
			// Otra lectura concurrente ya lo abrió.
			if errors.Is(err, domain.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		created = append(created, n)
	}

	open, err := uc.notifications.ListOpen(ctx, scope.Filter())
	if err != nil {
		return nil, err
	}
	for _, n := range open {
		if _, still := grouped[productKey{n.CompanyID, n.ProductID}]; still {
			continue
		}
		if err := uc.notifications.Close(ctx, n.ID, now); err != nil {
			return nil, err
		}
	}

	for _, n := range created {
		if err := uc.notifier.Send(ctx, n.CompanyID, n.Message); err != nil {
			uc.log.Warn().Err(err).Str("company_id", n.CompanyID).Str("product_id", n.ProductID).
				Msg("no se pudo enviar aviso de stock bajo")
		}
	}
	return items, nil
}

func lowStockMessage(rows []entity.LowStockItem) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		wh := r.WarehouseName
		if wh == "" {
			wh = r.WarehouseID
		}
		parts = append(parts, fmt.Sprintf("%s: %d (mín. %d)", wh, r.Stock, r.MinStock))
	}
	return fmt.Sprintf("Stock bajo de %s [%s]: %s", rows[0].ProductName, rows[0].ProductCode, strings.Join(parts, ", "))
}
