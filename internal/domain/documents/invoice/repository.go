package invoice

import (
	"context"
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// Repository defines persistence for invoices. Every read is scoped by account.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error)

	// Update writes inv if its stored version still equals inv.Version and
	// increments the version. A mismatch returns CONCURRENT_MODIFICATION.
	Update(ctx context.Context, inv *Invoice) error

	Delete(ctx context.Context, accountID, invoiceID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// ListOverdueCandidates returns sent invoices of any account with a
	// balance and a due date before now.
	ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]Ref, error)
}

// Ref identifies an invoice across accounts.
type Ref struct {
	AccountID id.ID `db:"account_id"`
	ID        id.ID `db:"id"`
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	QuotationID *id.ID
	DueBefore   *time.Time
}
