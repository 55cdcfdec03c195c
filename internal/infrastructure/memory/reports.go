package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.ExportLogRepository = (*ExportLogRepo)(nil)
	_ repository.ReportRepository    = (*ReportRepo)(nil)
)

// ExportLogRepo bitácora de exportaciones.
type ExportLogRepo struct{ h handle }

func (r *ExportLogRepo) Create(_ context.Context, log *entity.ExportLog) error {
	return r.h.do(func(st *state) error {
		st.exports[log.ID] = *log
		return nil
	})
}

func (r *ExportLogRepo) GetByID(_ context.Context, companyID, id string) (*entity.ExportLog, error) {
	var out *entity.ExportLog
	err := r.h.do(func(st *state) error {
		if l, ok := st.exports[id]; ok && inCompany(companyID, l.CompanyID) {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *ExportLogRepo) Finish(_ context.Context, id, status, message, filePath string, rows int) (bool, error) {
	updated := false
	err := r.h.do(func(st *state) error {
		l, ok := st.exports[id]
		if !ok || l.Status != entity.ExportQueued {
			return nil
		}
		now := time.Now()
		l.Status = status
		l.Message = message
		l.FilePath = filePath
		l.RowCount = rows
		l.FinishedAt = &now
		st.exports[id] = l
		updated = true
		return nil
	})
	return updated, err
}

func (r *ExportLogRepo) List(_ context.Context, companyID string, limit, offset int) ([]*entity.ExportLog, error) {
	var out []*entity.ExportLog
	err := r.h.do(func(st *state) error {
		for _, l := range st.exports {
			if inCompany(companyID, l.CompanyID) {
				out = append(out, &l)
			}
		}
		return nil
	})
	byDateDesc(out, func(l *entity.ExportLog) time.Time { return l.CreatedAt }, func(l *entity.ExportLog) string { return l.ID })
	return page(out, limit, offset), err
}

// ReportRepo agregados calculados sobre las facturas en memoria.
type ReportRepo struct{ h handle }

func matches(inv entity.Invoice, f repository.ReportFilter) bool {
	switch {
	case !inCompany(f.CompanyID, inv.CompanyID),
		f.From != nil && inv.Date.Before(*f.From),
		f.To != nil && inv.Date.After(*f.To),
		f.Status != "" && inv.Status != f.Status,
		f.ClientID != "" && inv.ClientID != f.ClientID:
		return false
	}
	if f.Category == "" {
		return true
	}
	for _, it := range inv.Items {
		if it.Category == f.Category {
			return true
		}
	}
	return false
}

// selected facturas filtradas en orden fecha desc, id asc.
func (r *ReportRepo) selected(f repository.ReportFilter) ([]entity.Invoice, map[string]entity.Client, error) {
	var out []entity.Invoice
	clients := map[string]entity.Client{}
	err := r.h.do(func(st *state) error {
		for _, inv := range st.invoices {
			if matches(inv, f) {
				out = append(out, inv)
				clients[inv.ClientID] = st.clients[inv.ClientID]
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, clients, err
}

func avg(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func (r *ReportRepo) Summary(_ context.Context, f repository.ReportFilter) (*entity.ReportSummary, error) {
	invs, _, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	s := &entity.ReportSummary{}
	perClient := map[string]int{}
	for _, inv := range invs {
		s.TotalSales = s.TotalSales.Add(inv.Total)
		perClient[inv.ClientID]++
	}
	s.InvoiceCount = len(invs)
	s.UniqueClients = len(perClient)
	for _, n := range perClient {
		if n > 1 {
			s.ReturningClients++
		}
	}
	s.AvgTicket = avg(s.TotalSales, s.InvoiceCount)
	return s, nil
}

func (r *ReportRepo) AvgTicket(ctx context.Context, f repository.ReportFilter) (decimal.Decimal, error) {
	s, err := r.Summary(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	return s.AvgTicket, nil
}

func (r *ReportRepo) breakdown(f repository.ReportFilter, key func(entity.Invoice) string) ([]entity.Breakdown, error) {
	invs, _, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	acc := map[string]*entity.Breakdown{}
	for _, inv := range invs {
		k := key(inv)
		b, ok := acc[k]
		if !ok {
			b = &entity.Breakdown{Key: k}
			acc[k] = b
		}
		b.Count++
		b.Total = b.Total.Add(inv.Total)
	}
	out := make([]entity.Breakdown, 0, len(acc))
	for _, b := range acc {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *ReportRepo) StatusBreakdown(_ context.Context, f repository.ReportFilter) ([]entity.Breakdown, error) {
	return r.breakdown(f, func(inv entity.Invoice) string { return inv.Status })
}

func (r *ReportRepo) PaymentMethodBreakdown(_ context.Context, f repository.ReportFilter) ([]entity.Breakdown, error) {
	return r.breakdown(f, func(inv entity.Invoice) string { return inv.PaymentMethod })
}

func (r *ReportRepo) CategoryStats(_ context.Context, f repository.ReportFilter) ([]entity.CategoryStat, error) {
	invs, _, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	acc := map[string]*entity.CategoryStat{}
	for _, inv := range invs {
		for _, it := range inv.Items {
			if f.Category != "" && it.Category != f.Category {
				continue
			}
			c, ok := acc[it.Category]
			if !ok {
				c = &entity.CategoryStat{Category: it.Category}
				acc[it.Category] = c
			}
			c.Count++
			c.Quantity += it.Quantity
			c.Sum = c.Sum.Add(it.Subtotal())
		}
	}
	out := make([]entity.CategoryStat, 0, len(acc))
	for _, c := range acc {
		c.Avg = avg(c.Sum, c.Count)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Sum.Equal(out[j].Sum) {
			return out[i].Sum.GreaterThan(out[j].Sum)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *ReportRepo) series(f repository.ReportFilter, bucket func(time.Time) time.Time) ([]entity.SeriesPoint, error) {
	invs, _, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	acc := map[time.Time]*entity.SeriesPoint{}
	for _, inv := range invs {
		k := bucket(inv.Date)
		p, ok := acc[k]
		if !ok {
			p = &entity.SeriesPoint{Period: k}
			acc[k] = p
		}
		p.Count++
		p.Total = p.Total.Add(inv.Total)
	}
	out := make([]entity.SeriesPoint, 0, len(acc))
	for _, p := range acc {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (r *ReportRepo) DailySeries(_ context.Context, f repository.ReportFilter) ([]entity.SeriesPoint, error) {
	return r.series(f, func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

func (r *ReportRepo) MonthlySeries(_ context.Context, f repository.ReportFilter) ([]entity.SeriesPoint, error) {
	return r.series(f, func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
}

func rank(acc map[string]*entity.RankItem, limit int) []entity.RankItem {
	out := make([]entity.RankItem, 0, len(acc))
	for _, it := range acc {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *ReportRepo) TopClients(_ context.Context, f repository.ReportFilter, limit int) ([]entity.RankItem, error) {
	invs, clients, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	acc := map[string]*entity.RankItem{}
	for _, inv := range invs {
		it, ok := acc[inv.ClientID]
		if !ok {
			it = &entity.RankItem{Key: inv.ClientID, Name: clients[inv.ClientID].Name}
			acc[inv.ClientID] = it
		}
		it.Count++
		it.Total = it.Total.Add(inv.Total)
	}
	return rank(acc, limit), nil
}

func (r *ReportRepo) TopCategories(ctx context.Context, f repository.ReportFilter, limit int) ([]entity.RankItem, error) {
	stats, err := r.CategoryStats(ctx, f)
	if err != nil {
		return nil, err
	}
	acc := map[string]*entity.RankItem{}
	for _, s := range stats {
		acc[s.Category] = &entity.RankItem{Key: s.Category, Name: s.Category, Count: s.Count, Total: s.Sum}
	}
	return rank(acc, limit), nil
}

func (r *ReportRepo) CountInvoices(_ context.Context, f repository.ReportFilter) (int, error) {
	invs, _, err := r.selected(f)
	return len(invs), err
}

func toRow(inv entity.Invoice, clientName string) entity.InvoiceRow {
	return entity.InvoiceRow{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		NCF:           inv.NCF,
		InvoiceType:   string(inv.InvoiceType),
		Date:          inv.Date,
		ClientID:      inv.ClientID,
		ClientName:    clientName,
		Status:        inv.Status,
		PaymentMethod: inv.PaymentMethod,
		Subtotal:      inv.Subtotal,
		ITBIS:         inv.ITBIS,
		Total:         inv.Total,
	}
}

func (r *ReportRepo) ListInvoices(_ context.Context, f repository.ReportFilter, limit, offset int) ([]entity.InvoiceRow, error) {
	invs, clients, err := r.selected(f)
	if err != nil {
		return nil, err
	}
	invs = page(invs, limit, offset)
	out := make([]entity.InvoiceRow, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toRow(inv, clients[inv.ClientID].Name))
	}
	return out, nil
}

func (r *ReportRepo) StreamInvoices(ctx context.Context, f repository.ReportFilter, fn func(entity.InvoiceRow) error) error {
	invs, clients, err := r.selected(f)
	if err != nil {
		return err
	}
	for _, inv := range invs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(toRow(inv, clients[inv.ClientID].Name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReportRepo) Statement(_ context.Context, companyID, clientID string) ([]entity.StatementRow, error) {
	var out []entity.StatementRow
	err := r.h.do(func(st *state) error {
		paid := map[string]decimal.Decimal{}
		for _, p := range st.payments {
			paid[p.InvoiceID] = paid[p.InvoiceID].Add(p.Amount)
		}
		for _, inv := range st.invoices {
			if inv.ClientID != clientID || !inCompany(companyID, inv.CompanyID) {
				continue
			}
			out = append(out, entity.StatementRow{
				InvoiceID: inv.ID,
				NCF:       inv.NCF,
				Date:      inv.Date,
				Status:    inv.Status,
				Total:     inv.Total,
				Paid:      paid[inv.ID],
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].InvoiceID < out[j].InvoiceID
	})
	return out, err
}
