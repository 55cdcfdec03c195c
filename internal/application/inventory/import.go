package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

// ImportRow fila cruda de un archivo de carga de stock. MinStock vacío conserva el mínimo actual.
type ImportRow struct {
	Line     int
	Code     string
	Stock    string
	MinStock string
}

// ImportResult resultado de una importación aplicada.
type ImportResult struct {
	Applied     int    `json:"applied"`
	ReferenceID string `json:"reference_id"`
}

type parsedRow struct {
	product  *entity.Product
	stock    int
	minStock int
	minSet   bool
}

// Import fija el stock absoluto de varios productos en un almacén. Todo o nada: si alguna fila
// no valida se devuelve *domain.ImportError con todas las filas malas y no se aplica ninguna.
func (uc *LedgerUseCase) Import(ctx context.Context, scope tenant.Scope, warehouseID string, rows []ImportRow, actor string) (*ImportResult, error) {
	companyID, err := scope.RequireTenant()
	if err != nil {
		return nil, err
	}
	if _, err := uc.resolveWarehouse(ctx, companyID, warehouseID); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewValidationError("rows", "el archivo no tiene filas")
	}

	parsed := make([]parsedRow, 0, len(rows))
	var bad []domain.RowError
	seen := map[string]int{}
	for _, row := range rows {
		code := strings.TrimSpace(row.Code)
		fail := func(msg string) {
			bad = append(bad, domain.RowError{Line: row.Line, Code: code, Message: msg})
		}
		if code == "" {
			fail("código requerido")
			continue
		}
		if prev, ok := seen[code]; ok {
			fail(fmt.Sprintf("código repetido (línea %d)", prev))
			continue
		}
		seen[code] = row.Line

		stock, err := strconv.Atoi(strings.TrimSpace(row.Stock))
		if err != nil || stock < 0 {
			fail("stock debe ser un entero no negativo")
			continue
		}
		p := parsedRow{stock: stock}
		if m := strings.TrimSpace(row.MinStock); m != "" {
			minStock, err := strconv.Atoi(m)
			if err != nil || minStock < 0 {
				fail("stock mínimo debe ser un entero no negativo")
				continue
			}
			p.minStock, p.minSet = minStock, true
		}
		product, err := uc.catalog.GetProductByCode(ctx, companyID, code)
		if err != nil {
			return nil, err
		}
		if product == nil {
			fail("producto no encontrado")
			continue
		}
		p.product = product
		parsed = append(parsed, p)
	}
	if len(bad) > 0 {
		return nil, &domain.ImportError{Rows: bad}
	}

	now := uc.now()
	refID := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(r repository.TxRepos) error {
		for _, p := range parsed {
			s, err := r.Stock.GetForUpdate(ctx, p.product.ID, warehouseID)
			if err != nil {
				return err
			}
			delta := p.stock - s.Stock
			s.CompanyID = companyID
			s.Stock = p.stock
			if p.minSet {
				s.MinStock = p.minStock
			}
			s.UpdatedAt = now
			if err := r.Stock.Upsert(ctx, s); err != nil {
				return err
			}
			if err := r.Stock.SyncProductMirror(ctx, p.product.ID); err != nil {
				return err
			}
			if err := r.Movements.Create(ctx, &entity.InventoryMovement{
				ID:            uuid.New().String(),
				CompanyID:     companyID,
				ProductID:     p.product.ID,
				WarehouseID:   warehouseID,
				Quantity:      abs(delta),
				Type:          entity.MovementAjuste,
				ReferenceType: entity.ReferenceImport,
				ReferenceID:   refID,
				ExecutedBy:    actor,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("company_id", companyID).Str("warehouse_id", warehouseID).
		Int("rows", len(parsed)).Msg("importación de stock aplicada")
	return &ImportResult{Applied: len(parsed), ReferenceID: refID}, nil
}

// ParseImportCSV lee un CSV con cabecera (code, stock[, min_stock]). Acepta UTF-8 (con o sin BOM)
// y Windows-1252, que es lo que exporta Excel en español. También acepta ';' como separador.
func ParseImportCSV(r io.Reader) ([]ImportRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		raw, err = charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, domain.NewValidationError("file", "codificación no soportada")
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := bytes.Cut(raw, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, domain.NewValidationError("file", "archivo vacío")
	}
	if err != nil {
		return nil, domain.NewValidationError("file", err.Error())
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	codeIdx, okCode := col["code"]
	stockIdx, okStock := col["stock"]
	if !okCode || !okStock {
		return nil, domain.NewValidationError("file", "la cabecera debe incluir code y stock")
	}
	minIdx, okMin := col["min_stock"]

	field := func(rec []string, i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	var rows []ImportRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("file", err.Error())
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		// línea física del archivo: un campo entre comillas puede ocupar varias
		line, _ := cr.FieldPos(0)
		row := ImportRow{Line: line, Code: field(rec, codeIdx), Stock: field(rec, stockIdx)}
		if okMin {
			row.MinStock = field(rec, minIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
