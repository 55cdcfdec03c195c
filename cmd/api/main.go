// @title        Ventas API
// @version      1.0
// @description  Cotizaciones, pedidos, facturas con NCF, inventario, reportes y exportaciones.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/docs"
	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Ventas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/queue"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/storage"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/tabular"
	httpRouter "github.com/jhoicas/Ventas-api/internal/interfaces/http"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("export_queue", cfg.Export.Queue).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	repos := postgres.NewRepos(pool)
	notifications := postgres.NewNotificationRepository(pool)
	exportLogs := postgres.NewExportLogRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)

	notifier := notify.NewLogNotifier(log.Component("notify"))
	mailer := notify.NewLogMailer(log.Component("mail"))
	renderer := infrapdf.NewMarotoRenderer()
	encoder := tabular.Encoder{}

	ledgerUC := inventory.NewLedgerUseCase(txRunner, repos.Catalog, repos.Stock, repos.Movements, notifications, notifier, log.Component("inventory"))
	allocatorUC := fiscal.NewAllocatorUseCase(txRunner, repos.Companies, repos.NcfLogs, log.Component("fiscal"))
	workflowUC := sales.NewWorkflowUseCase(
		txRunner, repos, ledgerUC, allocatorUC, ledgerUC, renderer, notifier, mailer,
		sales.Settings{
			TaxRate:  decimal.NewFromFloat(cfg.Workflow.TaxRate),
			Validity: time.Duration(cfg.Workflow.QuotationValidityDays) * 24 * time.Hour,
		},
		log.Component("sales"),
	)
	reportUC := reports.NewReportUseCase(reportRepo, repos.Catalog)

	// Exportaciones: el despachador en proceso siempre existe; es el destino directo con
	// EXPORT_QUEUE=inprocess y el respaldo cuando la cola externa no acepta el trabajo.
	files, closeFiles, err := storage.FromConfig(ctx, cfg.Export, cfg.PubSub.CredentialsJSON)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de exportaciones")
	}
	defer closeFiles()
	runner := export.NewRunner(exportLogs, reportRepo, encoder, renderer, files, log.Component("export"))
	qlog := log.Component("queue")
	inProcess := queue.NewInProcess(runner.Process, cfg.Export.Workers, 64, qlog)

	var dispatcher export.Dispatcher = inProcess
	var closers []func() error
	switch cfg.Export.Queue {
	case "redis":
		rdb, err := queue.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		closers = append(closers, rdb.Close)
		dispatcher = queue.NewFallback(queue.NewRedis(rdb, cfg.Redis.QueueKey, qlog), inProcess, qlog)
	case "pubsub":
		ps, err := queue.NewPubSub(ctx, cfg.PubSub, qlog)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Pub/Sub")
		}
		closers = append(closers, ps.Close)
		dispatcher = queue.NewFallback(ps, inProcess, qlog)
	}
	exportUC := export.NewPipelineUseCase(exportLogs, reportRepo, encoder, renderer, dispatcher, cfg.Export.MaxRows, log.Component("export"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // exportaciones síncronas grandes
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024, // importación CSV
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Ventas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	var exportFiles httpRouter.FileOpener
	if opener, ok := files.(httpRouter.FileOpener); ok && cfg.Export.GCSBucket == "" {
		exportFiles = opener
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		Workflow:    workflowUC,
		Ledger:      ledgerUC,
		Allocator:   allocatorUC,
		Reports:     reportUC,
		Exports:     exportUC,
		TableRender: renderer,
		ExportFiles: exportFiles,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := inProcess.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("exportaciones pendientes sin terminar")
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("cierre de cola")
		}
	}

	log.Info().Msg("aplicación detenida")
}
