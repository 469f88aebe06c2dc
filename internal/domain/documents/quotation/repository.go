package quotation

import (
	"context"
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// Repository defines persistence for quotations. Every read is scoped by account.
type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	GetByID(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error)

	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error)

	// Update writes q if its stored version still equals q.Version and
	// increments the version. A mismatch returns CONCURRENT_MODIFICATION.
	Update(ctx context.Context, q *Quotation) error

	Delete(ctx context.Context, accountID, quotationID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error)

	// ListExpiryCandidates returns sent quotations of any account whose
	// expiry date is before now.
	ListExpiryCandidates(ctx context.Context, now time.Time, limit int) ([]Ref, error)
}

// Ref identifies a quotation across accounts.
type Ref struct {
	AccountID id.ID `db:"account_id"`
	ID        id.ID `db:"id"`
}

// ListFilter for filtering quotations.
type ListFilter struct {
	domain.ListFilter

	ExpiresBefore *time.Time
}
