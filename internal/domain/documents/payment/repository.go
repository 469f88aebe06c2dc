package payment

import (
	"context"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

// Repository defines persistence for payments. Every read is scoped by account.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, accountID, paymentID id.ID) (*Payment, error)

	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, accountID, paymentID id.ID) (*Payment, error)

	// Update writes p if its stored version still equals p.Version and
	// increments the version.
	Update(ctx context.Context, p *Payment) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error)
}

// ListFilter for filtering payments. ClientID and DateFrom/DateTo of the
// embedded filter are ignored; dates apply to PaidAt.
type ListFilter struct {
	domain.ListFilter

	InvoiceID *id.ID
	Methods   []Method
}
