package numerator

import (
	"context"
	"time"

	"invoicepro/internal/core/id"
)

// Generator generates document numbers that are unique per account and never
// reused. Implementations live in the infrastructure layer.
type Generator interface {
	// GetNextNumber generates the next number for the account.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
	GetNextNumber(ctx context.Context, accountID id.ID, cfg Config, opts *Options, period time.Time) (string, error)
}
