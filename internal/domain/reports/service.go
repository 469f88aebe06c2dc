package reports

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"invoicepro/internal/core/clock"
	appctx "invoicepro/internal/core/context"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/pkg/logger"
)

const (
	recentPaymentsLimit = 10
	topClientsLimit     = 5

	// DefaultCacheTTL applies when the configured TTL is zero.
	DefaultCacheTTL = 60 * time.Second

	computeTimeout = 30 * time.Second
)

var tracer = otel.Tracer("invoicepro/reports")

// Service provides dashboard statistics.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	clock clock.Clock
	group singleflight.Group
}

// NewService creates a new reports service. A nil cache disables caching.
func NewService(repo Repository, cache Cache, ttl time.Duration, clk clock.Clock) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, clock: clk}
}

// GetDashboard returns the cached dashboard or computes it. Concurrent misses
// for one account share a single computation. Cache errors are logged and
// treated as misses.
func (s *Service) GetDashboard(ctx context.Context, accountID id.ID) (*Dashboard, error) {
	cached, err := s.cache.Get(ctx, accountID)
	if err != nil {
		logger.Warn(ctx, "dashboard cache read failed", "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	// The computation is shared by every waiter, so it must not end with the
	// request that happened to start it.
	ch := s.group.DoChan(accountID.String(), func() (any, error) {
		cctx, cancel := context.WithTimeout(detach(ctx), computeTimeout)
		defer cancel()

		d, err := s.compute(cctx, accountID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(cctx, accountID, d, s.ttl); err != nil {
			logger.Warn(cctx, "dashboard cache write failed", "error", err)
		}
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dashboard), nil
	}
}

// detach keeps the request's trace, user and span parent.
func detach(ctx context.Context) context.Context {
	return trace.ContextWithSpanContext(appctx.Detach(ctx), trace.SpanContextFromContext(ctx))
}

// Invalidate drops the cached dashboard of the account.
func (s *Service) Invalidate(ctx context.Context, accountID id.ID) error {
	s.group.Forget(accountID.String())
	if err := s.cache.Invalidate(ctx, accountID); err != nil {
		return fmt.Errorf("invalidate dashboard: %w", err)
	}
	return nil
}

// InvalidateHook returns a hook that drops the dashboard of the changed
// document's account.
func InvalidateHook[T interface{ GetAccountID() id.ID }](s *Service) domain.Hook[T] {
	return func(ctx context.Context, doc T) error {
		return s.Invalidate(ctx, doc.GetAccountID())
	}
}

func (s *Service) compute(ctx context.Context, accountID id.ID) (_ *Dashboard, err error) {
	ctx, span := tracer.Start(ctx, "dashboard.compute")
	span.SetAttributes(attribute.String("account_id", accountID.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	d := &Dashboard{GeneratedAt: s.clock.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Totals, err = s.repo.InvoiceTotals(gctx, accountID)
		return wrap("invoice totals", err)
	})
	g.Go(func() (err error) {
		d.InvoiceCounts, err = s.repo.InvoiceCountsByStatus(gctx, accountID)
		return wrap("invoice counts", err)
	})
	g.Go(func() (err error) {
		d.QuotationCounts, err = s.repo.QuotationCountsByStatus(gctx, accountID)
		return wrap("quotation counts", err)
	})
	g.Go(func() (err error) {
		d.RecentPayments, err = s.repo.RecentPayments(gctx, accountID, recentPaymentsLimit)
		return wrap("recent payments", err)
	})
	g.Go(func() (err error) {
		d.TopClients, err = s.repo.TopClients(gctx, accountID, topClientsLimit)
		return wrap("top clients", err)
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	d.ConversionRate = conversionRate(d.QuotationCounts)
	return d, nil
}

func wrap(query string, err error) error {
	if err != nil {
		return fmt.Errorf("dashboard %s: %w", query, err)
	}
	return nil
}

// conversionRate is converted over every quotation that was sent.
func conversionRate(counts []StatusCount) float64 {
	var sent, converted int64
	for _, c := range counts {
		if c.Status == "draft" {
			continue
		}
		sent += c.Count
		if c.Status == "converted" {
			converted = c.Count
		}
	}
	if sent == 0 {
		return 0
	}
	return float64(converted) / float64(sent)
}
