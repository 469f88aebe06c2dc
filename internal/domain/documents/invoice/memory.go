package invoice

import (
	"context"
	"slices"
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// MemoryRepository is an in-process Repository for unit tests.
type MemoryRepository struct {
	*domain.MemoryStore[Invoice, *Invoice]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{domain.NewMemoryStore[Invoice, *Invoice](EntityName, func(inv Invoice) Invoice {
		inv.Items = slices.Clone(inv.Items)
		return inv
	})}
}

func (r *MemoryRepository) Create(_ context.Context, inv *Invoice) error {
	r.Insert(inv)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return r.Get(accountID, invoiceID)
}

func (r *MemoryRepository) GetForUpdate(_ context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return r.Get(accountID, invoiceID)
}

func (r *MemoryRepository) Update(_ context.Context, inv *Invoice) error {
	return r.MemoryStore.Update(inv)
}

func (r *MemoryRepository) Delete(_ context.Context, accountID, invoiceID id.ID) error {
	return r.MemoryStore.Delete(accountID, invoiceID)
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) (domain.ListResult[*Invoice], error) {
	items := r.Filter(func(inv *Invoice) bool {
		if inv.AccountID != f.AccountID {
			return false
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, string(inv.Status)) {
			return false
		}
		if f.ClientID != nil && inv.ClientID != *f.ClientID {
			return false
		}
		return f.QuotationID == nil || (inv.QuotationID != nil && *inv.QuotationID == *f.QuotationID)
	})
	return domain.ListResult[*Invoice]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *MemoryRepository) ListOverdueCandidates(_ context.Context, now time.Time, limit int) ([]Ref, error) {
	var refs []Ref
	for _, inv := range r.Filter(func(inv *Invoice) bool {
		return inv.Status == StatusSent && inv.AmountDue > 0 && now.After(inv.DueDate)
	}) {
		if len(refs) == limit {
			break
		}
		refs = append(refs, Ref{AccountID: inv.AccountID, ID: inv.ID})
	}
	return refs, nil
}

var _ Repository = (*MemoryRepository)(nil)
