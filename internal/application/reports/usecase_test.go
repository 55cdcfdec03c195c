package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/reports"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/tenant"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	now     = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)
	scopeC1 = tenant.Scope{CompanyID: "c1", UserID: "u1", Role: tenant.RoleAdmin}
)

func invoice(id, client, status, method string, date time.Time, total string, cats ...string) entity.Invoice {
	items := make([]entity.LineItem, len(cats))
	for i, c := range cats {
		items[i] = entity.LineItem{ID: id + c, Category: c, Quantity: 1, UnitPrice: d(total)}
	}
	return entity.Invoice{
		ID: id, CompanyID: "c1", ClientID: client, NCF: "B02" + id, Status: status, PaymentMethod: method,
		Date: date, Subtotal: d(total), Total: d(total), Items: items,
	}
}

func setup() (*memory.Store, *reports.ReportUseCase) {
	store := memory.NewStore()
	store.PutClient(entity.Client{ID: "ana", CompanyID: "c1", Name: "Ana"})
	store.PutClient(entity.Client{ID: "luis", CompanyID: "c1", Name: "Luis"})
	store.PutInvoice(invoice("1", "ana", entity.InvoicePagada, "efectivo", now.AddDate(0, 0, -2), "100", "Granos"))
	store.PutInvoice(invoice("2", "ana", entity.InvoicePendiente, "tarjeta", now.AddDate(0, 0, -1), "300", "Víveres"))
	store.PutInvoice(invoice("3", "luis", entity.InvoicePagada, "efectivo", now.AddDate(0, -3, 0), "200", "Granos"))
	// Otra empresa: nunca debe aparecer.
	other := invoice("9", "x", entity.InvoicePagada, "efectivo", now, "999", "Granos")
	other.CompanyID = "c2"
	store.PutInvoice(other)

	uc := reports.NewReportUseCase(store.Reports(), store.Repos().Catalog).WithClock(func() time.Time { return now })
	return store, uc
}

func TestDashboard_TotalesYRetencion(t *testing.T) {
	_, uc := setup()

	rep, err := uc.Dashboard(context.Background(), scopeC1, reports.ReportQuery{})
	require.NoError(t, err)
	assert.True(t, rep.TotalSales.Equal(d("600")), "total %s", rep.TotalSales)
	assert.Equal(t, 3, rep.InvoiceCount)
	assert.Equal(t, 2, rep.UniqueClients)
	assert.Equal(t, 1, rep.ReturningClients)
	assert.True(t, rep.RetentionRate.Equal(d("50")))
	assert.True(t, rep.AvgTicket.Equal(d("200")))
	assert.True(t, rep.AvgTicketMonth.Equal(d("200")), "mes %s", rep.AvgTicketMonth)
	assert.Equal(t, "Mayo 2026", rep.MonthLabel)
	assert.Equal(t, 3, rep.Page.Total)
	require.Len(t, rep.Invoices, 3)
	assert.Equal(t, "2", rep.Invoices[0].ID, "más reciente primero")
}

func TestDashboard_TendenciaDe24MesesConCeros(t *testing.T) {
	_, uc := setup()

	rep, err := uc.Dashboard(context.Background(), scopeC1, reports.ReportQuery{})
	require.NoError(t, err)
	require.Len(t, rep.MonthlyTrend, 24)
	last := rep.MonthlyTrend[23]
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), last.Period)
	assert.True(t, last.Total.Equal(d("400")))
	assert.True(t, rep.MonthlyTrend[0].Total.IsZero())
}

func TestDashboard_FiltroCategoriaYTop(t *testing.T) {
	_, uc := setup()

	rep, err := uc.Dashboard(context.Background(), scopeC1, reports.ReportQuery{Category: "Granos"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.InvoiceCount)
	require.Len(t, rep.Categories, 1)
	assert.Equal(t, "Granos", rep.Categories[0].Category)
	assert.True(t, rep.Categories[0].Sum.Equal(d("300")))
	assert.True(t, rep.Categories[0].Avg.Equal(d("150")))

	require.NotEmpty(t, rep.TopClients)
	assert.Equal(t, "luis", rep.TopClients[0].Key)
}

func TestDashboard_RangoInvertido(t *testing.T) {
	_, uc := setup()
	from, to := now, now.AddDate(0, 0, -5)

	_, err := uc.Dashboard(context.Background(), scopeC1, reports.ReportQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClientStatement_SaldoPorFactura(t *testing.T) {
	store, uc := setup()
	require.NoError(t, store.Repos().Payments.Create(context.Background(), &entity.Payment{
		ID: "p1", CompanyID: "c1", InvoiceID: "2", Amount: d("120"),
	}))

	st, err := uc.ClientStatement(context.Background(), scopeC1, "ana")
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.True(t, st.Total.Equal(d("400")))
	assert.True(t, st.Paid.Equal(d("120")))
	assert.True(t, st.Balance.Equal(d("280")))

	_, err = uc.ClientStatement(context.Background(), scopeC1, "nadie")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
