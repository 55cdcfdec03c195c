package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.QuotationRepository = (*QuotationRepo)(nil)
	_ repository.OrderRepository     = (*OrderRepo)(nil)
	_ repository.InvoiceRepository   = (*InvoiceRepo)(nil)
	_ repository.PaymentRepository   = (*PaymentRepo)(nil)
)

func byDateDesc[T any](list []*T, date func(*T) time.Time, id func(*T) string) {
	sort.Slice(list, func(i, j int) bool {
		di, dj := date(list[i]), date(list[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return id(list[i]) < id(list[j])
	})
}

// QuotationRepo cotizaciones.
type QuotationRepo struct{ h handle }

func (r *QuotationRepo) Create(_ context.Context, q *entity.Quotation) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.quotations[q.ID]; ok {
			return &domain.DuplicateError{Resource: "cotización", Value: q.ID}
		}
		st.quotations[q.ID] = *q
		return nil
	})
}

func (r *QuotationRepo) GetByID(_ context.Context, companyID, id string) (*entity.Quotation, error) {
	var out *entity.Quotation
	err := r.h.do(func(st *state) error {
		if q, ok := st.quotations[id]; ok && inCompany(companyID, q.CompanyID) {
			out = &q
		}
		return nil
	})
	return out, err
}

func (r *QuotationRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Quotation, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *QuotationRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.h.do(func(st *state) error {
		q, ok := st.quotations[id]
		if !ok {
			return &domain.NotFoundError{Resource: "cotización", ID: id}
		}
		q.Status = status
		st.quotations[id] = q
		return nil
	})
}

func (r *QuotationRepo) ExpireBefore(_ context.Context, companyID string, cutoff time.Time) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		for id, q := range st.quotations {
			if q.Status == entity.QuotationVigente && q.Date.Before(cutoff) && inCompany(companyID, q.CompanyID) {
				q.Status = entity.QuotationVencida
				st.quotations[id] = q
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *QuotationRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Quotation, error) {
	var out []*entity.Quotation
	err := r.h.do(func(st *state) error {
		for _, q := range st.quotations {
			if inCompany(f.CompanyID, q.CompanyID) && (f.Status == "" || q.Status == f.Status) &&
				(f.ClientID == "" || q.ClientID == f.ClientID) {
				out = append(out, &q)
			}
		}
		return nil
	})
	byDateDesc(out, func(q *entity.Quotation) time.Time { return q.Date }, func(q *entity.Quotation) string { return q.ID })
	return page(out, f.Limit, f.Offset), err
}

// OrderRepo pedidos.
type OrderRepo struct{ h handle }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.h.do(func(st *state) error {
		for _, existing := range st.orders {
			if o.QuotationID != "" && existing.QuotationID == o.QuotationID {
				return &domain.DuplicateError{Resource: "pedido de la cotización", Value: o.QuotationID}
			}
		}
		st.orders[o.ID] = *o
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, companyID, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.h.do(func(st *state) error {
		if o, ok := st.orders[id]; ok && inCompany(companyID, o.CompanyID) {
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.h.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return &domain.NotFoundError{Resource: "pedido", ID: id}
		}
		o.Status = status
		st.orders[id] = o
		return nil
	})
}

func (r *OrderRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.h.do(func(st *state) error {
		for _, o := range st.orders {
			if inCompany(f.CompanyID, o.CompanyID) && (f.Status == "" || o.Status == f.Status) &&
				(f.ClientID == "" || o.ClientID == f.ClientID) {
				out = append(out, &o)
			}
		}
		return nil
	})
	byDateDesc(out, func(o *entity.Order) time.Time { return o.Date }, func(o *entity.Order) string { return o.ID })
	return page(out, f.Limit, f.Offset), err
}

// InvoiceRepo facturas.
type InvoiceRepo struct{ h handle }

func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	return r.h.do(func(st *state) error {
		for _, existing := range st.invoices {
			if existing.CompanyID == inv.CompanyID && existing.NCF == inv.NCF {
				return &domain.DuplicateError{Resource: "NCF", Value: inv.NCF}
			}
			if inv.OrderID != "" && existing.OrderID == inv.OrderID {
				return &domain.DuplicateError{Resource: "factura del pedido", Value: inv.OrderID}
			}
		}
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, companyID, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.h.do(func(st *state) error {
		if inv, ok := st.invoices[id]; ok && inCompany(companyID, inv.CompanyID) {
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *InvoiceRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.h.do(func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok {
			return &domain.NotFoundError{Resource: "factura", ID: id}
		}
		inv.Status = status
		st.invoices[id] = inv
		return nil
	})
}

func (r *InvoiceRepo) ExistsNCF(_ context.Context, companyID, ncf string) (bool, error) {
	found := false
	err := r.h.do(func(st *state) error {
		for _, inv := range st.invoices {
			if inv.CompanyID == companyID && inv.NCF == ncf {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *InvoiceRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.h.do(func(st *state) error {
		for _, inv := range st.invoices {
			if inCompany(f.CompanyID, inv.CompanyID) && (f.Status == "" || inv.Status == f.Status) &&
				(f.ClientID == "" || inv.ClientID == f.ClientID) {
				out = append(out, &inv)
			}
		}
		return nil
	})
	byDateDesc(out, func(i *entity.Invoice) time.Time { return i.Date }, func(i *entity.Invoice) string { return i.ID })
	return page(out, f.Limit, f.Offset), err
}

// PaymentRepo abonos.
type PaymentRepo struct{ h handle }

func (r *PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.h.do(func(st *state) error {
		st.payments = append(st.payments, *p)
		return nil
	})
}

func (r *PaymentRepo) SumByInvoice(_ context.Context, invoiceID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.h.do(func(st *state) error {
		for _, p := range st.payments {
			if p.InvoiceID == invoiceID {
				sum = sum.Add(p.Amount)
			}
		}
		return nil
	})
	return sum, err
}

func (r *PaymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.h.do(func(st *state) error {
		for _, p := range st.payments {
			if p.InvoiceID == invoiceID {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}
