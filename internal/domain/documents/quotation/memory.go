package quotation

import (
	"context"
	"slices"
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// MemoryRepository is an in-process Repository for unit tests.
type MemoryRepository struct {
	*domain.MemoryStore[Quotation, *Quotation]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{domain.NewMemoryStore[Quotation, *Quotation](EntityName, func(q Quotation) Quotation {
		q.Items = slices.Clone(q.Items)
		return q
	})}
}

func (r *MemoryRepository) Create(_ context.Context, q *Quotation) error {
	r.Insert(q)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return r.Get(accountID, quotationID)
}

func (r *MemoryRepository) GetForUpdate(_ context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return r.Get(accountID, quotationID)
}

func (r *MemoryRepository) Update(_ context.Context, q *Quotation) error {
	return r.MemoryStore.Update(q)
}

func (r *MemoryRepository) Delete(_ context.Context, accountID, quotationID id.ID) error {
	return r.MemoryStore.Delete(accountID, quotationID)
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) (domain.ListResult[*Quotation], error) {
	items := r.Filter(func(q *Quotation) bool {
		if q.AccountID != f.AccountID {
			return false
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, string(q.Status)) {
			return false
		}
		return f.ClientID == nil || q.ClientID == *f.ClientID
	})
	return domain.ListResult[*Quotation]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *MemoryRepository) ListExpiryCandidates(_ context.Context, now time.Time, limit int) ([]Ref, error) {
	var refs []Ref
	for _, q := range r.Filter(func(q *Quotation) bool {
		return q.Status == StatusSent && now.After(q.ExpiryDate)
	}) {
		if len(refs) == limit {
			break
		}
		refs = append(refs, Ref{AccountID: q.AccountID, ID: q.ID})
	}
	return refs, nil
}

var _ Repository = (*MemoryRepository)(nil)
