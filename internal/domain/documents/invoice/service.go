package invoice

import (
	"context"
	"fmt"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/clock"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/numerator"
	"invoicepro/internal/core/tx"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/domain/terms"
	"invoicepro/pkg/logger"
)

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	clock     clock.Clock
	audit     audit.Recorder
	terms     terms.Policy
	hooks     *domain.HookRegistry[*Invoice]
}

// Option configures a Service.
type Option func(*Service)

// WithTerms sets the policy that fills in an omitted due date.
// The default is net terms.DefaultNetDays.
func WithTerms(p terms.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.terms = p
		}
	}
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	numerator numerator.Generator,
	txManager tx.Manager,
	clk clock.Clock,
	recorder audit.Recorder,
	opts ...Option,
) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	s := &Service{
		repo:      repo,
		numerator: numerator,
		txManager: txManager,
		clock:     clk,
		audit:     recorder,
		terms:     terms.NetDays(terms.DefaultNetDays),
		hooks:     domain.NewHookRegistry[*Invoice](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// Repository exposes the store so payment application can lock invoices in
// its own transaction.
func (s *Service) Repository() Repository {
	return s.repo
}

// Create creates a draft invoice with a new number.
func (s *Service) Create(ctx context.Context, accountID id.ID, d Draft) (*Invoice, error) {
	now := s.clock.Now()
	inv, err := New(accountID, d, now)
	if err != nil {
		return nil, err
	}
	if err := s.fillDueDate(inv); err != nil {
		return nil, err
	}
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}
	audit.EnrichCreatedBy(ctx, inv)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.insert(ctx, inv, now)
	})
	if err != nil {
		return nil, err
	}

	s.runHooks(ctx, domain.AfterCreate, inv)
	logger.Info(ctx, "invoice created", "id", inv.ID, "number", inv.Number, "grand_total", inv.GrandTotal)
	return inv, nil
}

// CreateFromQuotation inserts a draft invoice carrying the quotation snapshot.
// It joins the caller's transaction; hooks are left to the caller.
func (s *Service) CreateFromQuotation(ctx context.Context, accountID id.ID, src Source, dueDate time.Time) (*Invoice, error) {
	now := s.clock.Now()
	inv := NewFromSource(accountID, src, now, dueDate, now)
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}
	audit.EnrichCreatedBy(ctx, inv)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.insert(ctx, inv, now)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// fillDueDate applies the payment terms when the draft has no due date.
func (s *Service) fillDueDate(inv *Invoice) error {
	if !inv.DueDate.IsZero() || inv.IssueDate.IsZero() {
		return nil
	}
	due, err := s.terms.DueDate(terms.Input{
		IssueDate:  inv.IssueDate,
		GrandTotal: inv.GrandTotal.ToMoney(inv.Exponent()),
		Currency:   inv.Currency,
		ClientID:   inv.ClientID,
	})
	if err != nil {
		return apperror.NewInternal(err).WithDetail("step", "payment_terms")
	}
	inv.DueDate = due
	return nil
}

func (s *Service) insert(ctx context.Context, inv *Invoice, now time.Time) error {
	number, err := s.numerator.GetNextNumber(ctx, inv.AccountID, numerator.DefaultConfig(NumberPrefix),
		&numerator.Options{Strategy: NumeratorStrategy}, inv.IssueDate)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	inv.Number = number

	if err := s.repo.Create(ctx, inv); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return s.audit.Record(ctx, audit.New(ctx, inv.AccountID, EntityName, inv.ID, audit.ActionCreate, inv, now))
}

// Get returns one invoice of the account.
func (s *Service) Get(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, accountID, invoiceID)
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

// Update revises a draft. expectedVersion of 0 skips the client-side version check.
func (s *Service) Update(ctx context.Context, accountID, invoiceID id.ID, d Draft, expectedVersion int) (*Invoice, error) {
	return s.mutate(ctx, accountID, invoiceID, audit.ActionUpdate, func(inv *Invoice, now time.Time) (bool, error) {
		if err := checkVersion(inv, expectedVersion); err != nil {
			return false, err
		}
		if err := inv.Revise(d, now); err != nil {
			return false, err
		}
		if err := s.fillDueDate(inv); err != nil {
			return false, err
		}
		return true, inv.Validate(ctx)
	})
}

// Send moves a draft to sent.
func (s *Service) Send(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, accountID, invoiceID, audit.ActionSend, func(inv *Invoice, now time.Time) (bool, error) {
		return true, inv.Send(now)
	})
}

// Cancel cancels a draft or sent invoice.
func (s *Service) Cancel(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, accountID, invoiceID, audit.ActionCancel, func(inv *Invoice, now time.Time) (bool, error) {
		return true, inv.Cancel(now)
	})
}

// CheckOverdue marks the invoice overdue when it is past due with a balance.
// Calling it again is a no-op.
func (s *Service) CheckOverdue(ctx context.Context, accountID, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, accountID, invoiceID, audit.ActionOverdue, func(inv *Invoice, now time.Time) (bool, error) {
		return inv.CheckOverdue(now), nil
	})
}

// SweepOverdue runs CheckOverdue for every candidate of every account.
// Each invoice is handled in its own transaction; failures are logged and
// the sweep continues.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	refs, err := s.repo.ListOverdueCandidates(ctx, s.clock.Now(), SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	marked := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return marked, ctx.Err()
		}
		inv, err := s.CheckOverdue(ctx, ref.AccountID, ref.ID)
		if err != nil {
			logger.Warn(ctx, "overdue check failed", "invoice_id", ref.ID, "error", err)
			continue
		}
		if inv.Status == StatusOverdue {
			marked++
		}
	}
	return marked, nil
}

// Delete removes a draft invoice.
func (s *Service) Delete(ctx context.Context, accountID, invoiceID id.ID) error {
	var deleted *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, accountID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != StatusDraft {
			return invalidDelete(inv)
		}
		if err := s.repo.Delete(ctx, accountID, invoiceID); err != nil {
			return err
		}
		deleted = inv
		return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, invoiceID, audit.ActionDelete, inv, s.clock.Now()))
	})
	if err != nil {
		return err
	}
	s.runHooks(ctx, domain.AfterDelete, deleted)
	return nil
}

// mutate loads the invoice under lock, applies fn and writes it back with a
// version check, retrying once on conflict. fn reports whether it changed
// anything; unchanged invoices are not written.
func (s *Service) mutate(
	ctx context.Context,
	accountID, invoiceID id.ID,
	action audit.Action,
	fn func(inv *Invoice, now time.Time) (bool, error),
) (*Invoice, error) {
	var (
		out     *Invoice
		changed bool
	)
	err := domain.RunSerialized(ctx, s.txManager, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, accountID, invoiceID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		changed, err = fn(inv, now)
		if err != nil {
			return err
		}
		out = inv
		if !changed {
			return nil
		}
		audit.EnrichUpdatedBy(ctx, inv)
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, invoiceID, action, inv, now))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.runHooks(ctx, domain.AfterUpdate, out)
		logger.Info(ctx, "invoice updated", "id", out.ID, "action", action, "status", out.Status)
	}
	return out, nil
}

func (s *Service) runHooks(ctx context.Context, event domain.HookEvent, inv *Invoice) {
	if err := s.hooks.Run(ctx, event, inv); err != nil {
		logger.Warn(ctx, "invoice hook failed", "event", event, "id", inv.ID, "error", err)
	}
}
