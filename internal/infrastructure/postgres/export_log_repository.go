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

var _ repository.ExportLogRepository = (*ExportLogRepo)(nil)

// ExportLogRepo bitácora de exportaciones; una fila por solicitud.
type ExportLogRepo struct {
	q Querier
}

func NewExportLogRepository(q Querier) *ExportLogRepo {
	return &ExportLogRepo{q: q}
}

var exportColumns = []string{
	"id", "company_id", "formato", "tipo", "filtros", "status", "message", "file_path",
	"row_count", "async", "created_by", "created_at", "finished_at",
}

func scanExport(row pgx.Row) (*entity.ExportLog, error) {
	var l entity.ExportLog
	var message, filePath, createdBy *string
	err := row.Scan(&l.ID, &l.CompanyID, &l.Formato, &l.Tipo, &l.Filtros, &l.Status, &message, &filePath,
		&l.RowCount, &l.Async, &createdBy, &l.CreatedAt, &l.FinishedAt)
	if err != nil {
		return nil, err
	}
	l.Message, l.FilePath, l.CreatedBy = derefString(message), derefString(filePath), derefString(createdBy)
	return &l, nil
}

func (r *ExportLogRepo) Create(ctx context.Context, l *entity.ExportLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO export_logs (id, company_id, formato, tipo, filtros, status, message, file_path, row_count, async, created_by, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.CompanyID, l.Formato, l.Tipo, l.Filtros, l.Status, nullIfEmpty(l.Message), nullIfEmpty(l.FilePath),
		l.RowCount, l.Async, nullIfEmpty(l.CreatedBy), l.CreatedAt, l.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert export log: %w", err)
	}
	return nil
}

func (r *ExportLogRepo) GetByID(ctx context.Context, companyID, id string) (*entity.ExportLog, error) {
	if !isUUID(id) {
		return nil, nil
	}
	sql, args, err := companyScope(psql.Select(exportColumns...).From("export_logs").Where(squirrel.Eq{"id": id}),
		"company_id", companyID).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanExport(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get export log: %w", err)
	}
	return l, nil
}

// Finish única transición terminal: el WHERE status = 'queued' descarta una segunda.
func (r *ExportLogRepo) Finish(ctx context.Context, id, status, message, filePath string, rows int) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE export_logs
		SET status = $2, message = $3, file_path = $4, row_count = $5, finished_at = now()
		WHERE id = $1 AND status = $6`,
		id, status, nullIfEmpty(message), nullIfEmpty(filePath), rows, entity.ExportQueued)
	if err != nil {
		return false, fmt.Errorf("finish export log: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ExportLogRepo) List(ctx context.Context, companyID string, limit, offset int) ([]*entity.ExportLog, error) {
	b := companyScope(psql.Select(exportColumns...).From("export_logs"), "company_id", companyID).
		OrderBy("created_at DESC", "id")
	sql, args, err := paginate(b, limit, offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list export logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ExportLog
	for rows.Next() {
		l, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export log: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
