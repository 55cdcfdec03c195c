package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("github.com/jhoicas/Ventas-api/internal/infrastructure/postgres")

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. La exclusión la dan los SELECT ... FOR UPDATE de cada repositorio.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) (err error) {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.isolation", string(pgx.ReadCommitted))))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Companies:  NewCompanyRepository(q),
		NcfLogs:    NewNcfLogRepository(q),
		Catalog:    NewCatalogRepository(q),
		Stock:      NewStockRepository(q),
		Movements:  NewInventoryMovementRepository(q),
		Quotations: NewQuotationRepository(q),
		Orders:     NewOrderRepository(q),
		Invoices:   NewInvoiceRepository(q),
		Payments:   NewPaymentRepository(q),
	}
}
