package payment

import (
	"context"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/clock"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/tx"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/pkg/logger"
)

// Service records payments and applies them to invoices. The payment and
// its invoice are written in one transaction.
type Service struct {
	repo      Repository
	invoices  invoice.Repository
	txManager tx.Manager
	clock     clock.Clock
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*Payment]
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	invoices invoice.Repository,
	txManager tx.Manager,
	clk clock.Clock,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		repo:      repo,
		invoices:  invoices,
		txManager: txManager,
		clock:     clk,
		audit:     recorder,
		hooks:     domain.NewHookRegistry[*Payment](),
	}
}

// Hooks returns the hook registry. Hooks fire after the payment and its
// invoice are committed.
func (s *Service) Hooks() *domain.HookRegistry[*Payment] {
	return s.hooks
}

// Result is a payment together with the invoice state it left behind.
type Result struct {
	Payment *Payment         `json:"payment"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// Record stores a payment for an invoice of the account. A completed payment
// is applied to the invoice immediately; a pending one waits for Complete.
func (s *Service) Record(ctx context.Context, accountID id.ID, in Input) (*Result, error) {
	var res *Result
	err := domain.RunSerialized(ctx, s.txManager, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, accountID, in.InvoiceID)
		if err != nil {
			return err
		}
		res, err = s.record(ctx, inv, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.done(ctx, domain.AfterCreate, res)
	return res, nil
}

// SettleInvoice records a completed payment for the whole outstanding
// balance, moving the invoice to paid.
func (s *Service) SettleInvoice(ctx context.Context, accountID, invoiceID id.ID, method Method, reference string) (*Result, error) {
	var res *Result
	err := domain.RunSerialized(ctx, s.txManager, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, accountID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.AcceptsPayments() {
			return apperror.NewInvalidTransition(invoice.EntityName, "mark paid", inv.Status)
		}
		res, err = s.record(ctx, inv, Input{
			InvoiceID:            inv.ID,
			Amount:               inv.AmountDue.ToMoney(inv.Exponent()),
			Method:               method,
			TransactionReference: reference,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.done(ctx, domain.AfterCreate, res)
	return res, nil
}

func (s *Service) record(ctx context.Context, inv *invoice.Invoice, in Input) (*Result, error) {
	if in.Currency != "" && in.Currency != inv.Currency {
		return nil, apperror.NewCurrencyMismatch(inv.Currency.String(), in.Currency.String())
	}

	now := s.clock.Now()
	p, err := New(inv.AccountID, in, inv.Currency, now)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	audit.EnrichCreatedBy(ctx, p)

	switch {
	case p.Status == StatusCompleted:
		if err := s.apply(ctx, inv, p, now); err != nil {
			return nil, err
		}
	case !inv.Status.AcceptsPayments():
		return nil, apperror.NewInvalidTransition(invoice.EntityName, "apply payment to", inv.Status)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, audit.New(ctx, p.AccountID, EntityName, p.ID, audit.ActionCreate, p, now)); err != nil {
		return nil, err
	}
	return &Result{Payment: p, Invoice: inv}, nil
}

// apply adds a completed payment to its locked invoice and writes the invoice.
func (s *Service) apply(ctx context.Context, inv *invoice.Invoice, p *Payment, now time.Time) error {
	if err := inv.ApplyPayment(p.Amount, now); err != nil {
		return err
	}
	audit.EnrichUpdatedBy(ctx, inv)
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	return s.audit.Record(ctx, audit.New(ctx, inv.AccountID, invoice.EntityName, inv.ID, audit.ActionPaymentApplied, inv, now))
}

// Complete confirms a pending payment and applies it to the invoice.
func (s *Service) Complete(ctx context.Context, accountID, paymentID id.ID) (*Result, error) {
	return s.transition(ctx, accountID, paymentID, audit.ActionComplete, func(ctx context.Context, p *Payment, now time.Time) (*invoice.Invoice, error) {
		if err := p.Complete(now); err != nil {
			return nil, err
		}
		inv, err := s.invoices.GetForUpdate(ctx, accountID, p.InvoiceID)
		if err != nil {
			return nil, err
		}
		return inv, s.apply(ctx, inv, p, now)
	})
}

// Fail marks a pending payment failed. The invoice is not touched.
func (s *Service) Fail(ctx context.Context, accountID, paymentID id.ID) (*Result, error) {
	return s.transition(ctx, accountID, paymentID, audit.ActionFail, func(_ context.Context, p *Payment, now time.Time) (*invoice.Invoice, error) {
		return nil, p.Fail(now)
	})
}

// Refund marks a completed payment refunded and reverses it on the invoice.
// A paid invoice reopens.
func (s *Service) Refund(ctx context.Context, accountID, paymentID id.ID) (*Result, error) {
	return s.transition(ctx, accountID, paymentID, audit.ActionRefund, func(ctx context.Context, p *Payment, now time.Time) (*invoice.Invoice, error) {
		if err := p.Refund(now); err != nil {
			return nil, err
		}
		inv, err := s.invoices.GetForUpdate(ctx, accountID, p.InvoiceID)
		if err != nil {
			return nil, err
		}
		if err := inv.ReversePayment(p.Amount, now); err != nil {
			return nil, err
		}
		audit.EnrichUpdatedBy(ctx, inv)
		if err := s.invoices.Update(ctx, inv); err != nil {
			return nil, err
		}
		return inv, s.audit.Record(ctx, audit.New(ctx, accountID, invoice.EntityName, inv.ID, audit.ActionPaymentReversed, inv, now))
	})
}

func (s *Service) transition(
	ctx context.Context,
	accountID, paymentID id.ID,
	action audit.Action,
	fn func(ctx context.Context, p *Payment, now time.Time) (*invoice.Invoice, error),
) (*Result, error) {
	var res *Result
	err := domain.RunSerialized(ctx, s.txManager, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, accountID, paymentID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		inv, err := fn(ctx, p, now)
		if err != nil {
			return err
		}
		audit.EnrichUpdatedBy(ctx, p)
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		res = &Result{Payment: p, Invoice: inv}
		return s.audit.Record(ctx, audit.New(ctx, accountID, EntityName, paymentID, action, p, now))
	})
	if err != nil {
		return nil, err
	}
	s.done(ctx, domain.AfterUpdate, res)
	return res, nil
}

// Get returns one payment of the account.
func (s *Service) Get(ctx context.Context, accountID, paymentID id.ID) (*Payment, error) {
	return s.repo.GetByID(ctx, accountID, paymentID)
}

// List retrieves payments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error) {
	return s.repo.List(ctx, filter)
}

// ListByInvoice returns every payment of one invoice.
func (s *Service) ListByInvoice(ctx context.Context, accountID, invoiceID id.ID) ([]*Payment, error) {
	if _, err := s.invoices.GetByID(ctx, accountID, invoiceID); err != nil {
		return nil, err
	}
	f := ListFilter{ListFilter: domain.ListFilter{AccountID: accountID, OrderBy: "created_at"}, InvoiceID: &invoiceID}
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *Service) done(ctx context.Context, event domain.HookEvent, res *Result) {
	p := res.Payment
	logger.Info(ctx, "payment changed",
		"id", p.ID, "invoice_id", p.InvoiceID, "status", p.Status, "amount", p.Amount.Format(p.Currency.MinorUnitExponent()))
	if err := s.hooks.Run(ctx, event, p); err != nil {
		logger.Warn(ctx, "payment hook failed", "event", event, "id", p.ID, "error", err)
	}
}
