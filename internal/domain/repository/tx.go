package repository

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Companies  CompanyRepository
	NcfLogs    NcfLogRepository
	Catalog    CatalogRepository
	Stock      StockRepository
	Movements  InventoryMovementRepository
	Quotations QuotationRepository
	Orders     OrderRepository
	Invoices   InvoiceRepository
	Payments   PaymentRepository
}
