package reports

import (
	"context"
	"time"

	"invoicepro/internal/core/id"
)

// Repository runs the dashboard queries. The methods are independent and
// may be called concurrently.
type Repository interface {
	InvoiceTotals(ctx context.Context, accountID id.ID) ([]CurrencyTotals, error)
	InvoiceCountsByStatus(ctx context.Context, accountID id.ID) ([]StatusCount, error)
	QuotationCountsByStatus(ctx context.Context, accountID id.ID) ([]StatusCount, error)
	RecentPayments(ctx context.Context, accountID id.ID, limit int) ([]RecentPayment, error)
	TopClients(ctx context.Context, accountID id.ID, limit int) ([]TopClient, error)
}

// Cache stores a computed dashboard per account. A miss returns nil, nil.
type Cache interface {
	Get(ctx context.Context, accountID id.ID) (*Dashboard, error)
	Set(ctx context.Context, accountID id.ID, d *Dashboard, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID id.ID) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, id.ID) (*Dashboard, error) { return nil, nil }
func (NopCache) Set(context.Context, id.ID, *Dashboard, time.Duration) error { return nil }
func (NopCache) Invalidate(context.Context, id.ID) error { return nil }
