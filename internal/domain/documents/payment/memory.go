package payment

import (
	"context"
	"slices"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// MemoryRepository is an in-process Repository for unit tests.
type MemoryRepository struct {
	*domain.MemoryStore[Payment, *Payment]
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{domain.NewMemoryStore[Payment, *Payment](EntityName, func(p Payment) Payment { return p })}
}

func (r *MemoryRepository) Create(_ context.Context, p *Payment) error {
	r.Insert(p)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, accountID, paymentID id.ID) (*Payment, error) {
	return r.Get(accountID, paymentID)
}

func (r *MemoryRepository) GetForUpdate(_ context.Context, accountID, paymentID id.ID) (*Payment, error) {
	return r.Get(accountID, paymentID)
}

func (r *MemoryRepository) Update(_ context.Context, p *Payment) error {
	return r.MemoryStore.Update(p)
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) (domain.ListResult[*Payment], error) {
	items := r.Filter(func(p *Payment) bool {
		if p.AccountID != f.AccountID {
			return false
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, string(p.Status)) {
			return false
		}
		if len(f.Methods) > 0 && !slices.Contains(f.Methods, p.Method) {
			return false
		}
		return f.InvoiceID == nil || p.InvoiceID == *f.InvoiceID
	})
	return domain.ListResult[*Payment]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit, Offset: f.Offset}, nil
}

var _ Repository = (*MemoryRepository)(nil)
