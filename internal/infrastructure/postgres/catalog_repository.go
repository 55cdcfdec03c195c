package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lectura de productos, clientes y almacenes. El catálogo lo mantiene otro módulo;
// aquí solo se resuelve lo que referencian los documentos.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

var productColumns = []string{
	"id", "company_id", "code", "reference", "name", "unit", "price", "category",
	"has_itbis", "stock", "min_stock", "created_at", "updated_at",
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var reference, unit, category *string
	err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &reference, &p.Name, &unit, &p.Price, &category,
		&p.HasITBIS, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Reference, p.Unit, p.Category = derefString(reference), derefString(unit), derefString(category)
	return &p, nil
}

// ResolveProducts devuelve los productos existentes de ids, en el orden de ids.
func (r *CatalogRepo) ResolveProducts(ctx context.Context, companyID string, ids []string) ([]*entity.Product, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	b := psql.Select(productColumns...).From("products").Where(squirrel.Eq{"id": ids})
	sql, args, err := companyScope(b, "company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	defer rows.Close()
	byID := make(map[string]*entity.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *CatalogRepo) getProduct(ctx context.Context, companyID string, where squirrel.Eq) (*entity.Product, error) {
	sql, args, err := companyScope(psql.Select(productColumns...).From("products").Where(where), "company_id", companyID).
		Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *CatalogRepo) GetProduct(ctx context.Context, companyID, id string) (*entity.Product, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getProduct(ctx, companyID, squirrel.Eq{"id": id})
}

// GetProductByCode busca por código; en bypass puede haber el mismo código en varias empresas
// y se devuelve el primero.
func (r *CatalogRepo) GetProductByCode(ctx context.Context, companyID, code string) (*entity.Product, error) {
	return r.getProduct(ctx, companyID, squirrel.Eq{"code": code})
}

func (r *CatalogRepo) GetClient(ctx context.Context, companyID, id string) (*entity.Client, error) {
	if !isUUID(id) {
		return nil, nil
	}
	sql, args, err := companyScope(psql.Select(
		"id", "company_id", "name", "identifier", "email", "phone", "address", "is_final_consumer", "created_at", "updated_at",
	).From("clients").Where(squirrel.Eq{"id": id}), "company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	var c entity.Client
	var identifier, email, phone, address *string
	err = r.q.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CompanyID, &c.Name, &identifier, &email, &phone, &address,
		&c.IsFinalConsumer, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.Identifier, c.Email, c.Phone, c.Address = derefString(identifier), derefString(email), derefString(phone), derefString(address)
	return &c, nil
}

func (r *CatalogRepo) GetWarehouse(ctx context.Context, companyID, id string) (*entity.Warehouse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	sql, args, err := companyScope(psql.Select("id", "company_id", "name", "address", "created_at", "updated_at").
		From("warehouses").Where(squirrel.Eq{"id": id}), "company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	var w entity.Warehouse
	var address *string
	err = r.q.QueryRow(ctx, sql, args...).Scan(&w.ID, &w.CompanyID, &w.Name, &address, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	w.Address = derefString(address)
	return &w, nil
}
