package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicepro/pkg/logger"
)

// OverdueSweeper marks sent invoices past their due date as overdue.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// ExpirySweeper marks pending quotations past their expiry date as expired.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// IdempotencyCleaner removes expired idempotency keys.
type IdempotencyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SweepResult counts what a single pass changed.
type SweepResult struct {
	Overdue     int
	Expired     int
	KeysRemoved int64
}

// Sweeper applies time-driven status transitions.
type Sweeper struct {
	invoices    OverdueSweeper
	quotations  ExpirySweeper
	idempotency IdempotencyCleaner
	poolStats   func(ctx context.Context)
	log         *logger.Logger
}

// NewSweeper creates a Sweeper. idempotency may be nil.
func NewSweeper(invoices OverdueSweeper, quotations ExpirySweeper, idempotency IdempotencyCleaner, log *logger.Logger) *Sweeper {
	return &Sweeper{
		invoices:    invoices,
		quotations:  quotations,
		idempotency: idempotency,
		log:         log.WithComponent("sweeper"),
	}
}

// WithPoolStats sets a callback run after every pass.
func (s *Sweeper) WithPoolStats(fn func(ctx context.Context)) *Sweeper {
	s.poolStats = fn
	return s
}

// RunOnce performs one pass. A failing step does not stop the others.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var (
		res  SweepResult
		errs []error
		err  error
	)

	if res.Overdue, err = s.invoices.SweepOverdue(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sweep overdue invoices: %w", err))
	}
	if res.Expired, err = s.quotations.SweepExpired(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sweep expired quotations: %w", err))
	}
	if s.idempotency != nil {
		if res.KeysRemoved, err = s.idempotency.CleanupExpired(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cleanup idempotency keys: %w", err))
		}
	}

	if res.Overdue > 0 || res.Expired > 0 || res.KeysRemoved > 0 {
		s.log.Infow("sweep finished",
			"overdue", res.Overdue,
			"expired", res.Expired,
			"idempotency_keys", res.KeysRemoved,
		)
	}
	if s.poolStats != nil {
		s.poolStats(ctx)
	}

	return res, errors.Join(errs...)
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Infow("sweeper started", "interval", interval)
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Errorw("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
