package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/lock"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Ventas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/queue"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/storage"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/tabular"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

const (
	sweepLockKey = "scheduler:expire-quotations"
	jobClaimTTL  = 10 * time.Minute
)

// consumer cola externa de la que lee el worker.
type consumer interface {
	Consume(ctx context.Context, h queue.Handler) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("export_queue", cfg.Export.Queue).
		Int("sweep_minutes", cfg.Workflow.ExpirySweepMinutes).
		Msg("iniciando worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name+"-worker")
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	repos := postgres.NewRepos(pool)
	notifier := notify.NewLogNotifier(log.Component("notify"))

	ledgerUC := inventory.NewLedgerUseCase(txRunner, repos.Catalog, repos.Stock, repos.Movements,
		postgres.NewNotificationRepository(pool), notifier, log.Component("inventory"))
	allocatorUC := fiscal.NewAllocatorUseCase(txRunner, repos.Companies, repos.NcfLogs, log.Component("fiscal"))
	workflowUC := sales.NewWorkflowUseCase(txRunner, repos, ledgerUC, allocatorUC, nil, nil, notifier, notify.NewLogMailer(log.Component("mail")),
		sales.Settings{
			TaxRate:  decimal.NewFromFloat(cfg.Workflow.TaxRate),
			Validity: time.Duration(cfg.Workflow.QuotationValidityDays) * 24 * time.Hour,
		}, log.Component("sales"))

	// Sin Redis el lock es local: sirve para una sola instancia del worker.
	var locker lock.Locker = lock.NewLocal()
	var jobs consumer
	if cfg.Redis.Address != "" {
		rdb, err := queue.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedis(redislock.New(rdb))
		if cfg.Export.Queue == "redis" {
			jobs = queue.NewRedis(rdb, cfg.Redis.QueueKey, log.Component("queue"))
		}
	}
	if cfg.Export.Queue == "pubsub" {
		ps, err := queue.NewPubSub(ctx, cfg.PubSub, log.Component("queue"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Pub/Sub")
		}
		defer ps.Close()
		jobs = ps
	}

	g, gctx := errgroup.WithContext(ctx)

	if jobs != nil {
		files, closeFiles, err := storage.FromConfig(ctx, cfg.Export, cfg.PubSub.CredentialsJSON)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento de exportaciones")
		}
		defer closeFiles()
		reportRepo := postgres.NewReportRepository(pool)
		runner := export.NewRunner(postgres.NewExportLogRepository(pool), reportRepo, tabular.Encoder{},
			infrapdf.NewMarotoRenderer(), files, log.Component("export"))
		handler := queue.Claimed(locker, jobClaimTTL, runner.Process, log.Component("queue"))
		g.Go(func() error { return jobs.Consume(gctx, handler) })
	} else {
		log.Info().Msg("EXPORT_QUEUE=inprocess: la API procesa las exportaciones; el worker solo hace el barrido")
	}

	g.Go(func() error {
		return sweepLoop(gctx, workflowUC, locker, time.Duration(cfg.Workflow.ExpirySweepMinutes)*time.Minute, log)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("worker finalizado con error")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}

// sweepLoop vence cotizaciones de todas las empresas cada interval. Solo una instancia
// barre a la vez; las demás encuentran el lock tomado y esperan al siguiente tick.
func sweepLoop(ctx context.Context, uc *sales.WorkflowUseCase, locker lock.Locker, interval time.Duration, log *logger.Logger) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sweepOnce(ctx, uc, locker, interval, log)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, uc *sales.WorkflowUseCase, locker lock.Locker, ttl time.Duration, log *logger.Logger) {
	release, ok, err := locker.TryLock(ctx, sweepLockKey, ttl)
	if err != nil {
		log.Error().Err(err).Msg("lock del barrido")
		return
	}
	if !ok {
		log.Debug().Msg("barrido en curso en otra instancia")
		return
	}
	defer release()

	if _, err := uc.ExpireStaleQuotations(ctx, tenant.ForCompany("")); err != nil {
		log.Error().Err(err).Msg("barrido de cotizaciones vencidas")
	}
}
