package quotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/clock"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/numerator"
	"invoicepro/internal/core/tx"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/terms"
)

type fixture struct {
	svc      *Service
	repo     *MemoryRepository
	invoices *invoice.Service
	clock    *clock.Fixed
	audit    *audit.MemoryRecorder
	account  id.ID
	changed  []Status
}

func newFixture(t *testing.T, policy terms.Policy) *fixture {
	t.Helper()
	f := &fixture{
		repo:    NewMemoryRepository(),
		clock:   clock.NewFixed(issueDate),
		audit:   &audit.MemoryRecorder{},
		account: id.New(),
	}
	gen := &numerator.MockGenerator{}
	f.invoices = invoice.NewService(invoice.NewMemoryRepository(), gen, tx.NoopManager{}, f.clock, f.audit)
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Invoices:  f.invoices,
		Terms:     policy,
		Numerator: gen,
		TxManager: tx.NoopManager{},
		Clock:     f.clock,
		Audit:     f.audit,
	})
	f.svc.Hooks().OnAnyChange(func(ctx context.Context, q *Quotation) error {
		f.changed = append(f.changed, q.Status)
		return nil
	})
	return f
}

func (f *fixture) approved(t *testing.T) *Quotation {
	t.Helper()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), true)
	require.NoError(t, err)
	q, err = f.svc.Approve(ctx, f.account, q.ID)
	require.NoError(t, err)
	return q
}

func TestService_CreateAsDraftAndSend(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), false)
	require.NoError(t, err)
	assert.Equal(t, "QUO-2026-00001", q.Number)
	assert.Equal(t, StatusDraft, q.Status)

	sent, err := f.svc.Send(ctx, f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionSend}, f.audit.Actions())
	assert.Equal(t, []Status{StatusDraft, StatusSent}, f.changed)
}

func TestService_CreateAndSendEmptyStoresNothing(t *testing.T) {
	f := newFixture(t, nil)
	d := scenarioDraft()
	d.Items = nil

	_, err := f.svc.Create(context.Background(), f.account, d, true)
	assert.True(t, errors.Is(err, apperror.ErrEmptyDocument))

	res, err := f.svc.List(context.Background(), ListFilter{ListFilter: domain.DefaultListFilter(f.account)})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, f.audit.Entries)
}

func TestService_ApproveFromDraftFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), false)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.account, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	stored, err := f.svc.Get(ctx, f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestService_ConvertToInvoice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.approved(t)

	f.clock.Advance(48 * time.Hour)
	converted, inv, err := f.svc.ConvertToInvoice(ctx, f.account, q.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConverted, converted.Status)
	require.NotNil(t, converted.ConvertedToInvoiceID)
	assert.Equal(t, inv.ID, *converted.ConvertedToInvoiceID)

	assert.Equal(t, invoice.StatusDraft, inv.Status)
	assert.Equal(t, types.MinorUnits(40900), inv.GrandTotal)
	assert.Equal(t, q.GrandTotal, inv.GrandTotal)
	assert.Equal(t, q.DocumentTotals, inv.DocumentTotals)
	assert.Equal(t, q.Items, inv.Items)
	assert.Equal(t, q.ClientID, inv.ClientID)
	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, q.ID, *inv.QuotationID)
	assert.Equal(t, "INV-2026-00001", inv.Number)
	assert.Equal(t, f.clock.Now(), inv.IssueDate)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, terms.DefaultNetDays), inv.DueDate)

	stored, err := f.invoices.Get(ctx, f.account, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.GrandTotal, stored.GrandTotal)

	_, _, err = f.svc.ConvertToInvoice(ctx, f.account, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	res, err := f.invoices.List(ctx, invoice.ListFilter{ListFilter: domain.DefaultListFilter(f.account)})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1, "second conversion creates nothing")
}

func TestService_ConvertUsesTermPolicy(t *testing.T) {
	policy, err := terms.NewExpression(`issue_date + duration(grand_total > 100.0 ? "336h" : "168h")`)
	require.NoError(t, err)
	f := newFixture(t, policy)
	q := f.approved(t)

	_, inv, err := f.svc.ConvertToInvoice(context.Background(), f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, issueDate.AddDate(0, 0, 14), inv.DueDate)
}

func TestService_ConvertRequiresApproved(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), true)
	require.NoError(t, err)

	_, _, err = f.svc.ConvertToInvoice(ctx, f.account, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	res, err := f.invoices.List(ctx, invoice.ListFilter{ListFilter: domain.DefaultListFilter(f.account)})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

type failingCreator struct{}

func (failingCreator) CreateFromQuotation(context.Context, id.ID, invoice.Source, time.Time) (*invoice.Invoice, error) {
	return nil, errors.New("insert failed")
}

func TestService_ConvertFailureKeepsQuotationApproved(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.invoices = failingCreator{}
	q := f.approved(t)

	_, _, err := f.svc.ConvertToInvoice(context.Background(), f.account, q.ID)
	require.Error(t, err)

	stored, err := f.svc.Get(context.Background(), f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Nil(t, stored.ConvertedToInvoiceID)
}

func TestService_SweepExpired(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, f.account, scenarioDraft(), true)
		require.NoError(t, err)
	}
	decided := f.approved(t)
	_, err := f.svc.Create(ctx, id.New(), scenarioDraft(), true)
	require.NoError(t, err)

	f.clock.Set(expiryDate.Add(time.Hour))
	expired, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, expired)

	expired, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	stored, err := f.svc.Get(ctx, f.account, decided.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestService_CheckExpiryIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), true)
	require.NoError(t, err)

	f.clock.Set(expiryDate.Add(time.Minute))
	got, err := f.svc.CheckExpiry(ctx, f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	version := got.Version

	got, err = f.svc.CheckExpiry(ctx, f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, version, got.Version)

	_, err = f.svc.Approve(ctx, f.account, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
}

func TestService_RejectAndDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), true)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(ctx, f.account, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	err = f.svc.Delete(ctx, f.account, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	draft, err := f.svc.Create(ctx, f.account, scenarioDraft(), false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, f.account, draft.ID))
	_, err = f.svc.Get(ctx, f.account, draft.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_UpdateRetriesOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.account, scenarioDraft(), false)
	require.NoError(t, err)

	conflicts := 1
	f.repo.BeforeUpdate = func(stored *Quotation) {
		if conflicts > 0 {
			conflicts--
			stored.Version++
		}
	}

	d := scenarioDraft()
	d.Notes = "valid for two weeks"
	updated, err := f.svc.Update(ctx, f.account, q.ID, d, 0)
	require.NoError(t, err)
	assert.Equal(t, "valid for two weeks", updated.Notes)
	assert.Equal(t, 3, updated.Version)
}
