package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoicepro/internal/core/id"
)

// MockGenerator is an in-memory Generator for unit tests.
// Without GetNextNumberFunc it counts per account and prefix.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, accountID id.ID, cfg Config, opts *Options, period time.Time) (string, error)

	mu       sync.Mutex
	counters map[string]int
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, accountID id.ID, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, accountID, cfg, opts, period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	key := accountID.String() + ":" + cfg.Prefix
	m.counters[key]++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), m.counters[key]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
