// Package invoice provides the Invoice document and its lifecycle.
package invoice

import (
	"context"
	"slices"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
)

// EntityName is used in errors and audit entries.
const EntityName = "invoice"

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// transitions lists every forward move. Leaving paid is only possible through
// ReversePayment and is not part of this table.
var transitions = map[Status][]Status{
	StatusDraft:   {StatusSent, StatusCancelled},
	StatusSent:    {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue: {StatusPaid},
}

// CanTransitionTo reports whether next is a listed successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal reports whether no forward transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// AcceptsPayments reports whether payments may be applied in s.
func (s Status) AcceptsPayments() bool {
	return s == StatusSent || s == StatusOverdue
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice is a bill to a client. AmountPaid, AmountDue and the paid status are
// changed only by ApplyPayment and ReversePayment.
type Invoice struct {
	entity.Document

	// QuotationID is set when the invoice was converted from a quotation
	QuotationID *id.ID `db:"quotation_id" json:"quotationId,omitempty"`

	DueDate time.Time         `db:"due_date" json:"dueDate"`
	Items   billing.LineItems `db:"items" json:"items"`
	billing.DocumentTotals

	AmountPaid types.MinorUnits `db:"amount_paid" json:"amountPaid"`
	AmountDue  types.MinorUnits `db:"amount_due" json:"amountDue"`

	Status      Status     `db:"status" json:"status"`
	SentAt      *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// Draft holds the editable content of an invoice.
type Draft struct {
	ClientID         id.ID
	IssueDate        time.Time
	DueDate          time.Time
	Currency         types.Currency
	Items            []billing.LineItem
	ShippingCharge   types.Money
	DocumentDiscount types.Money
	Notes            string
}

// Source is a priced snapshot copied from a quotation on conversion.
type Source struct {
	QuotationID id.ID
	ClientID    id.ID
	Currency    types.Currency
	Items       billing.LineItems
	Totals      billing.DocumentTotals
	Notes       string
}

// New creates a draft invoice from d.
func New(accountID id.ID, d Draft, now time.Time) (*Invoice, error) {
	inv := &Invoice{
		Document: entity.NewDocument(accountID, d.ClientID, d.IssueDate, d.Currency, now),
		Status:   StatusDraft,
	}
	if err := inv.apply(d); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewFromSource creates a draft invoice carrying the quotation's items and
// totals unchanged.
func NewFromSource(accountID id.ID, src Source, issueDate, dueDate, now time.Time) *Invoice {
	inv := &Invoice{
		Document:       entity.NewDocument(accountID, src.ClientID, issueDate, src.Currency, now),
		QuotationID:    id.Ptr(src.QuotationID),
		DueDate:        dueDate,
		Items:          slices.Clone(src.Items),
		DocumentTotals: src.Totals,
		Status:         StatusDraft,
	}
	inv.Notes = src.Notes
	inv.AmountDue = inv.GrandTotal
	return inv
}

// Revise replaces the editable content. Only drafts can be revised.
func (inv *Invoice) Revise(d Draft, now time.Time) error {
	if inv.Status != StatusDraft {
		return apperror.NewInvalidTransition(EntityName, "edit", inv.Status)
	}
	if err := inv.apply(d); err != nil {
		return err
	}
	inv.Touch(now)
	return nil
}

func (inv *Invoice) apply(d Draft) error {
	currency := d.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	items, err := billing.PriceLineItems(d.Items, currency)
	if err != nil {
		return err
	}
	totals, err := billing.ComputeTotals(d.Items, billing.Adjustments{
		Currency:         currency,
		ShippingCharge:   d.ShippingCharge,
		DocumentDiscount: d.DocumentDiscount,
	})
	if err != nil {
		return err
	}

	inv.ClientID = d.ClientID
	inv.IssueDate = d.IssueDate
	inv.DueDate = d.DueDate
	inv.Currency = currency
	inv.Notes = d.Notes
	inv.Items = items
	inv.DocumentTotals = totals
	inv.AmountPaid = 0
	inv.AmountDue = totals.GrandTotal
	return nil
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if inv.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").WithDetail("field", "dueDate")
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return apperror.NewValidation("due date must not be before issue date").WithDetail("field", "dueDate")
	}
	return nil
}

// Exponent returns the minor-unit exponent of the invoice currency.
func (inv *Invoice) Exponent() int32 {
	return inv.Currency.MinorUnitExponent()
}

// Send moves a draft with at least one item to sent.
func (inv *Invoice) Send(now time.Time) error {
	if inv.Status != StatusDraft {
		return apperror.NewInvalidTransition(EntityName, "send", inv.Status)
	}
	if len(inv.Items) == 0 {
		return apperror.NewEmptyDocument(EntityName, inv.ID)
	}
	inv.Status = StatusSent
	inv.SentAt = &now
	inv.Touch(now)
	return nil
}

// Cancel is allowed from draft or sent.
func (inv *Invoice) Cancel(now time.Time) error {
	if inv.Status != StatusDraft && inv.Status != StatusSent {
		return apperror.NewInvalidTransition(EntityName, "cancel", inv.Status)
	}
	inv.Status = StatusCancelled
	inv.CancelledAt = &now
	inv.Touch(now)
	return nil
}

// CheckOverdue moves a sent invoice with an outstanding balance to overdue
// once now is past the due date. It returns whether the status changed.
func (inv *Invoice) CheckOverdue(now time.Time) bool {
	if inv.Status != StatusSent || inv.AmountDue <= 0 || !now.After(inv.DueDate) {
		return false
	}
	inv.Status = StatusOverdue
	inv.Touch(now)
	return true
}

// ApplyPayment adds amount to AmountPaid and recomputes AmountDue. Reaching a
// zero balance marks the invoice paid at now; a partial payment keeps the
// current sent or overdue status.
func (inv *Invoice) ApplyPayment(amount types.MinorUnits, now time.Time) error {
	exp := inv.Exponent()
	if amount <= 0 {
		return apperror.NewInvalidAmount(amount.Format(exp))
	}
	if !inv.Status.AcceptsPayments() {
		return apperror.NewInvalidTransition(EntityName, "apply payment to", inv.Status)
	}
	if amount > inv.AmountDue {
		return apperror.NewOverpaymentRejected(amount.Format(exp), inv.AmountDue.Format(exp))
	}

	inv.AmountPaid += amount
	inv.AmountDue = inv.GrandTotal - inv.AmountPaid
	if inv.AmountDue == 0 {
		inv.Status = StatusPaid
		inv.PaidAt = &now
	}
	inv.Touch(now)
	return nil
}

// ReversePayment undoes a previously applied amount after a refund. A paid
// invoice reopens as sent, or overdue when now is past the due date.
func (inv *Invoice) ReversePayment(amount types.MinorUnits, now time.Time) error {
	exp := inv.Exponent()
	if amount <= 0 {
		return apperror.NewInvalidAmount(amount.Format(exp))
	}
	if inv.Status != StatusPaid && !inv.Status.AcceptsPayments() {
		return apperror.NewInvalidTransition(EntityName, "reverse payment on", inv.Status)
	}
	if amount > inv.AmountPaid {
		return apperror.NewInvalidAmount(amount.Format(exp)).
			WithDetail("amount_paid", inv.AmountPaid.Format(exp))
	}

	inv.AmountPaid -= amount
	inv.AmountDue = inv.GrandTotal - inv.AmountPaid
	if inv.Status == StatusPaid {
		inv.Status = StatusSent
		if now.After(inv.DueDate) {
			inv.Status = StatusOverdue
		}
		inv.PaidAt = nil
	}
	inv.Touch(now)
	return nil
}
