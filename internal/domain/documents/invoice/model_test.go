package invoice

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
)

var (
	issueDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	dueDate   = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
)

func scenarioItems() []billing.LineItem {
	line := billing.LineItem{
		Description:     "Consulting",
		Quantity:        2,
		UnitPrice:       types.MustMoney("100.00"),
		TaxRatePercent:  types.MustMoney("10"),
		DiscountPercent: types.MustMoney("5"),
	}
	zeroRated := line
	zeroRated.Description = "Travel"
	zeroRated.TaxRatePercent = types.Zero()
	return []billing.LineItem{line, zeroRated}
}

func scenarioDraft() Draft {
	return Draft{
		ClientID:       id.New(),
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Currency:       "USD",
		Items:          scenarioItems(),
		ShippingCharge: types.MustMoney("10.00"),
	}
}

func newSent(t *testing.T) *Invoice {
	t.Helper()
	inv, err := New(id.New(), scenarioDraft(), issueDate)
	require.NoError(t, err)
	require.NoError(t, inv.Send(issueDate))
	return inv
}

func TestNew_ComputesTotals(t *testing.T) {
	inv, err := New(id.New(), scenarioDraft(), issueDate)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, types.MinorUnits(40900), inv.GrandTotal)
	assert.Equal(t, types.MinorUnits(0), inv.AmountPaid)
	assert.Equal(t, types.MinorUnits(40900), inv.AmountDue)
	assert.Equal(t, types.MinorUnits(20900), inv.Items[0].LineTotal)
	assert.Nil(t, inv.PaidAt)
}

func TestNew_EmptyDraftIsValid(t *testing.T) {
	d := scenarioDraft()
	d.Items = nil
	d.ShippingCharge = types.Zero()

	inv, err := New(id.New(), d, issueDate)
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTotals{}, inv.DocumentTotals)

	err = inv.Send(issueDate)
	assert.True(t, errors.Is(err, apperror.ErrEmptyDocument))
	assert.Equal(t, StatusDraft, inv.Status)
}

func TestApplyPayment_Scenario(t *testing.T) {
	inv := newSent(t)
	paidAt := issueDate.Add(48 * time.Hour)

	require.NoError(t, inv.ApplyPayment(20000, issueDate.Add(24*time.Hour)))
	assert.Equal(t, types.MinorUnits(20000), inv.AmountPaid)
	assert.Equal(t, types.MinorUnits(20900), inv.AmountDue)
	assert.Equal(t, StatusSent, inv.Status)
	assert.Nil(t, inv.PaidAt)

	require.NoError(t, inv.ApplyPayment(20900, paidAt))
	assert.Equal(t, types.MinorUnits(40900), inv.AmountPaid)
	assert.Equal(t, types.MinorUnits(0), inv.AmountDue)
	assert.Equal(t, StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, paidAt, *inv.PaidAt)
}

func TestApplyPayment_OverpaymentLeavesInvoiceUnchanged(t *testing.T) {
	inv := newSent(t)
	before := *inv

	err := inv.ApplyPayment(50000, issueDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrOverpaymentRejected))
	assert.Equal(t, before, *inv)
}

func TestApplyPayment_InvalidAmount(t *testing.T) {
	inv := newSent(t)
	for _, amount := range []types.MinorUnits{0, -1} {
		err := inv.ApplyPayment(amount, issueDate)
		assert.True(t, errors.Is(err, apperror.ErrInvalidAmount), "amount %d", amount)
	}
	assert.Equal(t, types.MinorUnits(0), inv.AmountPaid)
}

func TestApplyPayment_RequiresOpenStatus(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(inv *Invoice)
	}{
		{"draft", func(inv *Invoice) {}},
		{"cancelled", func(inv *Invoice) { _ = inv.Cancel(issueDate) }},
		{"paid", func(inv *Invoice) {
			_ = inv.Send(issueDate)
			_ = inv.ApplyPayment(inv.AmountDue, issueDate)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := New(id.New(), scenarioDraft(), issueDate)
			require.NoError(t, err)
			tt.prepare(inv)

			err = inv.ApplyPayment(100, issueDate)
			assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
		})
	}
}

func TestApplyPayment_SettlesOverdue(t *testing.T) {
	inv := newSent(t)
	late := dueDate.Add(72 * time.Hour)
	require.True(t, inv.CheckOverdue(late))

	require.NoError(t, inv.ApplyPayment(100, late))
	assert.Equal(t, StatusOverdue, inv.Status, "partial payment keeps overdue")

	require.NoError(t, inv.ApplyPayment(inv.AmountDue, late))
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, late, *inv.PaidAt)
}

func TestApplyPayment_MonotonicSequence(t *testing.T) {
	inv := newSent(t)
	payments := []types.MinorUnits{1, 999, 12345, 7, 20000, 7548}

	prevPaid, prevDue := inv.AmountPaid, inv.AmountDue
	for i, p := range payments {
		require.NoError(t, inv.ApplyPayment(p, issueDate), "payment %d", i)
		assert.GreaterOrEqual(t, inv.AmountPaid, prevPaid)
		assert.LessOrEqual(t, inv.AmountDue, prevDue)
		assert.Equal(t, inv.GrandTotal-inv.AmountPaid, inv.AmountDue)
		assert.Equal(t, inv.AmountDue == 0, inv.Status == StatusPaid)
		prevPaid, prevDue = inv.AmountPaid, inv.AmountDue
	}
	assert.Equal(t, types.MinorUnits(0), inv.AmountDue)
	assert.Equal(t, StatusPaid, inv.Status)
}

func TestCheckOverdue(t *testing.T) {
	inv := newSent(t)

	assert.False(t, inv.CheckOverdue(dueDate), "due date itself is not past due")
	assert.True(t, inv.CheckOverdue(dueDate.Add(time.Second)))
	assert.False(t, inv.CheckOverdue(dueDate.Add(time.Hour)), "second call is a no-op")
	assert.Equal(t, StatusOverdue, inv.Status)

	cancelled, err := New(id.New(), scenarioDraft(), issueDate)
	require.NoError(t, err)
	require.NoError(t, cancelled.Cancel(issueDate))
	assert.False(t, cancelled.CheckOverdue(dueDate.AddDate(1, 0, 0)))
	assert.Equal(t, StatusCancelled, cancelled.Status)

	draft, err := New(id.New(), scenarioDraft(), issueDate)
	require.NoError(t, err)
	assert.False(t, draft.CheckOverdue(dueDate.AddDate(1, 0, 0)))
}

func TestCancel(t *testing.T) {
	inv := newSent(t)
	require.NoError(t, inv.Cancel(issueDate))
	assert.Equal(t, StatusCancelled, inv.Status)
	assert.True(t, errors.Is(inv.Cancel(issueDate), apperror.ErrInvalidTransition))

	overdue := newSent(t)
	overdue.CheckOverdue(dueDate.AddDate(0, 0, 1))
	assert.True(t, errors.Is(overdue.Cancel(issueDate), apperror.ErrInvalidTransition))
}

func TestSend_OnlyFromDraft(t *testing.T) {
	inv := newSent(t)
	assert.True(t, errors.Is(inv.Send(issueDate), apperror.ErrInvalidTransition))
}

func TestRevise_OnlyDraft(t *testing.T) {
	inv, err := New(id.New(), scenarioDraft(), issueDate)
	require.NoError(t, err)

	d := scenarioDraft()
	d.Items = d.Items[:1]
	require.NoError(t, inv.Revise(d, issueDate))
	assert.Equal(t, types.MinorUnits(20900+1000), inv.GrandTotal)
	assert.Equal(t, inv.GrandTotal, inv.AmountDue)

	require.NoError(t, inv.Send(issueDate))
	err = inv.Revise(scenarioDraft(), issueDate)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
}

func TestReversePayment(t *testing.T) {
	inv := newSent(t)
	require.NoError(t, inv.ApplyPayment(inv.AmountDue, issueDate))
	require.Equal(t, StatusPaid, inv.Status)

	require.NoError(t, inv.ReversePayment(10000, issueDate))
	assert.Equal(t, StatusSent, inv.Status)
	assert.Equal(t, types.MinorUnits(30900), inv.AmountPaid)
	assert.Equal(t, types.MinorUnits(10000), inv.AmountDue)
	assert.Nil(t, inv.PaidAt)

	err := inv.ReversePayment(40000, issueDate)
	assert.True(t, errors.Is(err, apperror.ErrInvalidAmount))
}

func TestReversePayment_ReopensAsOverdueAfterDueDate(t *testing.T) {
	inv := newSent(t)
	require.NoError(t, inv.ApplyPayment(inv.AmountDue, issueDate))

	require.NoError(t, inv.ReversePayment(inv.AmountPaid, dueDate.AddDate(0, 0, 3)))
	assert.Equal(t, StatusOverdue, inv.Status)
	assert.Equal(t, inv.GrandTotal, inv.AmountDue)
}

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}
	allowed := map[[2]Status]bool{}
	for _, pair := range [][2]Status{
		{StatusDraft, StatusSent},
		{StatusDraft, StatusCancelled},
		{StatusSent, StatusPaid},
		{StatusSent, StatusOverdue},
		{StatusSent, StatusCancelled},
		{StatusOverdue, StatusPaid},
	} {
		allowed[pair] = true
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusOverdue.IsTerminal())
}

func TestNewFromSource_KeepsSnapshot(t *testing.T) {
	totals, err := billing.ComputeTotals(scenarioItems(), billing.Adjustments{Currency: "USD", ShippingCharge: types.MustMoney("10")})
	require.NoError(t, err)
	items, err := billing.PriceLineItems(scenarioItems(), "USD")
	require.NoError(t, err)

	src := Source{QuotationID: id.New(), ClientID: id.New(), Currency: "USD", Items: items, Totals: totals}
	inv := NewFromSource(id.New(), src, issueDate, dueDate, issueDate)

	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, src.QuotationID, *inv.QuotationID)
	assert.Equal(t, totals, inv.DocumentTotals)
	assert.Equal(t, totals.GrandTotal, inv.AmountDue)
	assert.Equal(t, items, inv.Items)

	items[0].Description = "changed"
	assert.Equal(t, "Consulting", inv.Items[0].Description)
}
