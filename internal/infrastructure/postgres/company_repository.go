package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository = (*CompanyRepo)(nil)
	_ repository.NcfLogRepository  = (*NcfLogRepo)(nil)
)

// CompanyRepo empresas y sus contadores de NCF.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `id, name, rnc, address, phone, email, ncf_final, ncf_fiscal, created_at, updated_at`

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	var rnc, address, phone, email *string
	err := row.Scan(&c.ID, &c.Name, &rnc, &address, &phone, &email, &c.NCFFinal, &c.NCFFiscal, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.RNC, c.Address, c.Phone, c.Email = derefString(rnc), derefString(address), derefString(phone), derefString(email)
	return &c, nil
}

// GetByID obtiene una empresa por ID; (nil, nil) si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetForUpdate bloquea la fila de la empresa; los contadores quedan reservados hasta el fin de la tx.
func (r *CompanyRepo) GetForUpdate(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company for update: %w", err)
	}
	return c, nil
}

func (r *CompanyRepo) UpdateCounters(ctx context.Context, id string, ncfFinal, ncfFiscal int64) error {
	_, err := r.q.Exec(ctx,
		`UPDATE companies SET ncf_final = $2, ncf_fiscal = $3, updated_at = now() WHERE id = $1`,
		id, ncfFinal, ncfFiscal)
	if err != nil {
		return fmt.Errorf("update ncf counters: %w", err)
	}
	return nil
}

// NcfLogRepo bitácora append-only de cambios de contadores.
type NcfLogRepo struct {
	q Querier
}

func NewNcfLogRepository(q Querier) *NcfLogRepo {
	return &NcfLogRepo{q: q}
}

func (r *NcfLogRepo) Create(ctx context.Context, l *entity.NcfLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ncf_logs (id, company_id, old_final, new_final, old_fiscal, new_fiscal, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.CompanyID, l.OldFinal, l.NewFinal, l.OldFiscal, l.NewFiscal, l.ChangedBy, l.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert ncf log: %w", err)
	}
	return nil
}

func (r *NcfLogRepo) List(ctx context.Context, companyID string, limit, offset int) ([]*entity.NcfLog, error) {
	b := psql.Select("id", "company_id", "old_final", "new_final", "old_fiscal", "new_fiscal", "changed_by", "changed_at").
		From("ncf_logs").
		OrderBy("changed_at DESC", "id")
	sql, args, err := paginate(companyScope(b, "company_id", companyID), limit, offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list ncf logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.NcfLog
	for rows.Next() {
		var l entity.NcfLog
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.OldFinal, &l.NewFinal, &l.OldFiscal, &l.NewFiscal, &l.ChangedBy, &l.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan ncf log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
