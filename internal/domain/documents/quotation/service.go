package quotation

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
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/terms"
	"invoicepro/pkg/logger"
)

// InvoiceCreator inserts the invoice produced by a conversion. It must join
// the transaction found in ctx.
type InvoiceCreator interface {
	CreateFromQuotation(ctx context.Context, accountID id.ID, src invoice.Source, dueDate time.Time) (*invoice.Invoice, error)
}

// Service provides business operations for quotations.
type Service struct {
	repo      Repository
	invoices  InvoiceCreator
	terms     terms.Policy
	numerator numerator.Generator
	txManager tx.Manager
	clock     clock.Clock
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*Quotation]
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Invoices  InvoiceCreator
	Terms     terms.Policy
	Numerator numerator.Generator
	TxManager tx.Manager
	Clock     clock.Clock
	Audit     audit.Recorder
}

// NewService creates a new quotation service.
func NewService(d Deps) *Service {
	if d.Audit == nil {
		d.Audit = audit.NopRecorder{}
	}
	if d.Terms == nil {
		d.Terms = terms.NetDays(terms.DefaultNetDays)
	}
	return &Service{
		repo:      d.Repo,
		invoices:  d.Invoices,
		terms:     d.Terms,
		numerator: d.Numerator,
		txManager: d.TxManager,
		clock:     d.Clock,
		audit:     d.Audit,
		hooks:     domain.NewHookRegistry[*Quotation](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Quotation] {
	return s.hooks
}

// Create creates a draft quotation. With send set, the quotation is sent in
// the same transaction and an empty item list fails with EMPTY_DOCUMENT
// before anything is stored.
func (s *Service) Create(ctx context.Context, accountID id.ID, d Draft, send bool) (*Quotation, error) {
	now := s.clock.Now()
	q, err := New(accountID, d, now)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(ctx); err != nil {
		return nil, err
	}
	if send {
		if err := q.Send(now); err != nil {
			return nil, err
		}
	}
	audit.EnrichCreatedBy(ctx, q)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, accountID, numerator.DefaultConfig(NumberPrefix),
			&numerator.Options{Strategy: NumeratorStrategy}, q.IssueDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		q.Number = number

		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		if err := s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, q.ID, audit.ActionCreate, q, now)); err != nil {
			return err
		}
		if send {
			return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, q.ID, audit.ActionSend, q, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.runHooks(ctx, domain.AfterCreate, q)
	logger.Info(ctx, "quotation created", "id", q.ID, "number", q.Number, "status", q.Status)
	return q, nil
}

// Get returns one quotation of the account.
func (s *Service) Get(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return s.repo.GetByID(ctx, accountID, quotationID)
}

// List retrieves quotations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error) {
	return s.repo.List(ctx, filter)
}

// Update revises a draft. expectedVersion of 0 skips the client-side version check.
func (s *Service) Update(ctx context.Context, accountID, quotationID id.ID, d Draft, expectedVersion int) (*Quotation, error) {
	return s.mutate(ctx, accountID, quotationID, audit.ActionUpdate, func(ctx context.Context, q *Quotation, now time.Time) (bool, error) {
		if expectedVersion != 0 && q.Version != expectedVersion {
			return false, apperror.NewConcurrentModification(EntityName, q.ID.String()).
				WithDetail("expected_version", expectedVersion).
				WithDetail("actual_version", q.Version)
		}
		if err := q.Revise(d, now); err != nil {
			return false, err
		}
		return true, q.Validate(ctx)
	})
}

// Send moves a draft to sent.
func (s *Service) Send(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return s.mutate(ctx, accountID, quotationID, audit.ActionSend, func(_ context.Context, q *Quotation, now time.Time) (bool, error) {
		return true, q.Send(now)
	})
}

// Approve marks a sent quotation approved.
func (s *Service) Approve(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return s.mutate(ctx, accountID, quotationID, audit.ActionApprove, func(_ context.Context, q *Quotation, now time.Time) (bool, error) {
		return true, q.Approve(now)
	})
}

// Reject marks a sent quotation rejected.
func (s *Service) Reject(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return s.mutate(ctx, accountID, quotationID, audit.ActionReject, func(_ context.Context, q *Quotation, now time.Time) (bool, error) {
		return true, q.Reject(now)
	})
}

// CheckExpiry expires the quotation when it is sent and past its expiry
// date. Calling it again is a no-op.
func (s *Service) CheckExpiry(ctx context.Context, accountID, quotationID id.ID) (*Quotation, error) {
	return s.mutate(ctx, accountID, quotationID, audit.ActionExpire, func(_ context.Context, q *Quotation, now time.Time) (bool, error) {
		return q.CheckExpiry(now), nil
	})
}

// SweepExpired runs CheckExpiry for every candidate of every account.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	refs, err := s.repo.ListExpiryCandidates(ctx, s.clock.Now(), SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expiry candidates: %w", err)
	}

	expired := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		q, err := s.CheckExpiry(ctx, ref.AccountID, ref.ID)
		if err != nil {
			logger.Warn(ctx, "expiry check failed", "quotation_id", ref.ID, "error", err)
			continue
		}
		if q.Status == StatusExpired {
			expired++
		}
	}
	return expired, nil
}

// ConvertToInvoice turns an approved quotation into a draft invoice. The
// invoice insert and the quotation update share one transaction, so either
// both are stored or neither is.
func (s *Service) ConvertToInvoice(ctx context.Context, accountID, quotationID id.ID) (*Quotation, *invoice.Invoice, error) {
	var created *invoice.Invoice
	q, err := s.mutate(ctx, accountID, quotationID, audit.ActionConvert, func(ctx context.Context, q *Quotation, now time.Time) (bool, error) {
		if q.Status != StatusApproved {
			return false, apperror.NewInvalidTransition(EntityName, "convert", q.Status)
		}

		dueDate, err := s.terms.DueDate(terms.Input{
			IssueDate:  now,
			GrandTotal: q.GrandTotal.ToMoney(q.Currency.MinorUnitExponent()),
			Currency:   q.Currency,
			ClientID:   q.ClientID,
		})
		if err != nil {
			return false, apperror.NewInternal(err).WithDetail("step", "payment_terms")
		}

		inv, err := s.invoices.CreateFromQuotation(ctx, accountID, q.InvoiceSource(), dueDate)
		if err != nil {
			return false, fmt.Errorf("create invoice: %w", err)
		}
		if err := q.MarkConverted(inv.ID, now); err != nil {
			return false, err
		}
		created = inv
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "quotation converted", "id", q.ID, "invoice_id", created.ID, "invoice_number", created.Number)
	return q, created, nil
}

// Delete removes a draft quotation.
func (s *Service) Delete(ctx context.Context, accountID, quotationID id.ID) error {
	var deleted *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetForUpdate(ctx, accountID, quotationID)
		if err != nil {
			return err
		}
		if q.Status != StatusDraft {
			return apperror.NewInvalidTransition(EntityName, "delete", q.Status)
		}
		if err := s.repo.Delete(ctx, accountID, quotationID); err != nil {
			return err
		}
		deleted = q
		return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, quotationID, audit.ActionDelete, q, s.clock.Now()))
	})
	if err != nil {
		return err
	}
	s.runHooks(ctx, domain.AfterDelete, deleted)
	return nil
}

// mutate loads the quotation under lock, applies fn and writes it back with
// a version check, retrying once on conflict.
func (s *Service) mutate(
	ctx context.Context,
	accountID, quotationID id.ID,
	action audit.Action,
	fn func(ctx context.Context, q *Quotation, now time.Time) (bool, error),
) (*Quotation, error) {
	var (
		out     *Quotation
		changed bool
	)
	err := domain.RunSerialized(ctx, s.txManager, func(ctx context.Context) error {
		q, err := s.repo.GetForUpdate(ctx, accountID, quotationID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		changed, err = fn(ctx, q, now)
		if err != nil {
			return err
		}
		out = q
		if !changed {
			return nil
		}
		audit.EnrichUpdatedBy(ctx, q)
		if err := s.repo.Update(ctx, q); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, quotationID, action, q, now))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.runHooks(ctx, domain.AfterUpdate, out)
		logger.Info(ctx, "quotation updated", "id", out.ID, "action", action, "status", out.Status)
	}
	return out, nil
}

func (s *Service) runHooks(ctx context.Context, event domain.HookEvent, q *Quotation) {
	if err := s.hooks.Run(ctx, event, q); err != nil {
		logger.Warn(ctx, "quotation hook failed", "event", event, "id", q.ID, "error", err)
	}
}
