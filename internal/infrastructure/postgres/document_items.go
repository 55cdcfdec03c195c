package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// Tipos de documento en document_items.
const (
	docQuotation = "quotation"
	docOrder     = "order"
	docInvoice   = "invoice"
)

// insertItems copia los ítems del documento en un solo INSERT multi-fila.
func insertItems(ctx context.Context, q Querier, docType, docID string, items []entity.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("document_items").Columns(
		"id", "document_type", "document_id", "position", "product_id", "code", "reference", "name",
		"unit", "unit_price", "quantity", "discount", "category", "has_itbis",
	)
	for i, it := range items {
		b = b.Values(it.ID, docType, docID, i, it.ProductID, it.Code, it.Reference, it.Name,
			it.Unit, it.UnitPrice, it.Quantity, it.Discount, it.Category, it.HasITBIS)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s items: %w", docType, err)
	}
	return nil
}

// loadItems ítems de varios documentos del mismo tipo, agrupados por documento y en orden.
func loadItems(ctx context.Context, q Querier, docType string, docIDs []string) (map[string][]entity.LineItem, error) {
	out := make(map[string][]entity.LineItem, len(docIDs))
	if len(docIDs) == 0 {
		return out, nil
	}
	sql, args, err := psql.Select(
		"document_id", "id", "product_id", "code", "reference", "name", "unit",
		"unit_price", "quantity", "discount", "category", "has_itbis",
	).From("document_items").
		Where(squirrel.Eq{"document_type": docType, "document_id": docIDs}).
		OrderBy("document_id", "position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s items: %w", docType, err)
	}
	defer rows.Close()
	for rows.Next() {
		var docID string
		var it entity.LineItem
		var unitPrice, discount decimal.Decimal
		if err := rows.Scan(&docID, &it.ID, &it.ProductID, &it.Code, &it.Reference, &it.Name, &it.Unit,
			&unitPrice, &it.Quantity, &discount, &it.Category, &it.HasITBIS); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.UnitPrice, it.Discount = unitPrice, discount
		out[docID] = append(out[docID], it)
	}
	return out, rows.Err()
}

// documentList aplica los filtros comunes de listados.
func documentList(b squirrel.SelectBuilder, companyID, clientID, status string) squirrel.SelectBuilder {
	b = companyScope(b, "company_id", companyID)
	if clientID != "" {
		b = b.Where(squirrel.Eq{"client_id": clientID})
	}
	if status != "" {
		b = b.Where(squirrel.Eq{"status": status})
	}
	return b.OrderBy("date DESC", "id")
}
