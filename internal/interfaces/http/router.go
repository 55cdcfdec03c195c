package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Workflow    *sales.WorkflowUseCase
	Ledger      *inventory.LedgerUseCase
	Allocator   *fiscal.AllocatorUseCase
	Reports     *reports.ReportUseCase
	Exports     *export.PipelineUseCase
	TableRender export.TableRenderer
	ExportFiles FileOpener // nil cuando los archivos van a GCS
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (Bearer Token + alcance de empresa)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), ScopeMiddleware())
	adminOnly := RequireRole(tenant.RoleAdmin, tenant.RolePlatformAdmin)

	salesHandler := NewSalesHandler(deps.Workflow)

	quotations := protected.Group("/quotations")
	quotations.Post("/", salesHandler.CreateQuotation)
	quotations.Get("/", salesHandler.ListQuotations)
	quotations.Get("/:id", salesHandler.GetQuotation)
	quotations.Post("/:id/convert", salesHandler.ConvertQuotation)

	orders := protected.Group("/orders")
	orders.Get("/", salesHandler.ListOrders)
	orders.Get("/:id", salesHandler.GetOrder)
	orders.Post("/:id/invoice", salesHandler.InvoiceOrder)

	invoices := protected.Group("/invoices")
	invoices.Get("/", salesHandler.ListInvoices)
	invoices.Get("/:id", salesHandler.GetInvoice)
	invoices.Get("/:id/pdf", salesHandler.InvoicePDF)
	invoices.Post("/:id/payments", salesHandler.RecordPayment)

	// Inventario
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Post("/transfers", inventoryHandler.Transfer)
	invGroup.Post("/import", inventoryHandler.Import)
	invGroup.Put("/stock/min", inventoryHandler.SetMinStock)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)

	// Contadores NCF: lectura para todos, edición solo admin
	ncf := protected.Group("/settings/ncf")
	ncfHandler := NewNCFHandler(deps.Allocator)
	ncf.Get("/", ncfHandler.Get)
	ncf.Put("/", adminOnly, ncfHandler.Update)
	ncf.Get("/logs", ncfHandler.Logs)

	reportsGroup := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.Reports, deps.TableRender)
	reportsGroup.Get("/", reportHandler.Dashboard)
	reportsGroup.Get("/statement/:client_id", reportHandler.Statement)

	exports := protected.Group("/exports", adminOnly)
	exportHandler := NewExportHandler(deps.Exports, deps.ExportFiles)
	exports.Post("/", exportHandler.Create)
	exports.Get("/", exportHandler.List)
	exports.Get("/:id", exportHandler.Get)
	exports.Get("/:id/download", exportHandler.Download)
}
