package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// CatalogRepository consulta de solo lectura de productos, clientes y almacenes.
// companyID vacío significa sin filtro de empresa (bypass de administrador).
// Las búsquedas sin resultado devuelven (nil, nil).
type CatalogRepository interface {
	// ResolveProducts devuelve los productos existentes de la lista; ignora los que no existan.
	ResolveProducts(ctx context.Context, companyID string, ids []string) ([]*entity.Product, error)
	GetProduct(ctx context.Context, companyID, id string) (*entity.Product, error)
	GetProductByCode(ctx context.Context, companyID, code string) (*entity.Product, error)
	GetClient(ctx context.Context, companyID, id string) (*entity.Client, error)
	GetWarehouse(ctx context.Context, companyID, id string) (*entity.Warehouse, error)
}
