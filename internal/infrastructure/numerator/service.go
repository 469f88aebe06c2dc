// Package numerator provides the PostgreSQL implementation of document
// numbering. Sequences live in sys_sequences keyed by account and period.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"invoicepro/internal/core/id"
	corenumerator "invoicepro/internal/core/numerator"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// Querier is the part of pgx the numerator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service implements corenumerator.Generator.
//
// StrategyStrict increments the sequence in the caller's transaction, so a
// rolled back document gives its number back. StrategyCached reserves ranges
// on the pool, outside any transaction, and hands them out from memory.
type Service struct {
	inTx   func(ctx context.Context) Querier
	direct Querier

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator backed by txManager.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		inTx:   func(ctx context.Context) Querier { return txManager.GetQuerier(ctx) },
		direct: txManager.Pool(),
		ranges: make(map[string]*cachedRange),
	}
}

// NewWithQuerier creates a numerator that sends every statement to q.
func NewWithQuerier(q Querier) *Service {
	return &Service{
		inTx:   func(context.Context) Querier { return q },
		direct: q,
		ranges: make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next number for the account.
// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, accountID id.ID, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := buildKey(cfg, period)
	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, accountID, key, opts.RangeSize)
	default:
		num, err = s.nextStrict(ctx, accountID, key)
	}
	if err != nil {
		return "", err
	}

	return formatNumber(cfg, period, num), nil
}

func (s *Service) nextStrict(ctx context.Context, accountID id.ID, key string) (int64, error) {
	var num int64
	err := s.inTx(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (account_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (account_id, key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, accountID, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next %s: %w", key, err)
	}
	return num, nil
}

func (s *Service) nextCached(ctx context.Context, accountID id.ID, key string, size int64) (int64, error) {
	if size <= 0 {
		size = corenumerator.DefaultRangeSize
	}
	cacheKey := accountID.String() + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[cacheKey]
	if !ok {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	if rng.current >= rng.max {
		var newMax int64
		err := s.direct.QueryRow(ctx, `
			INSERT INTO sys_sequences (account_id, key, current_val)
			VALUES ($1, $2, $3)
			ON CONFLICT (account_id, key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val
			RETURNING current_val
		`, accountID, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}
		// The reserved range is newMax-size+1 .. newMax.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// buildKey creates the sequence key based on config and period.
func buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case corenumerator.ResetMonthly:
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case corenumerator.ResetYearly:
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
