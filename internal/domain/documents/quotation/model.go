// Package quotation provides the Quotation document, its lifecycle and the
// conversion of approved quotations into invoices.
package quotation

import (
	"context"
	"slices"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/domain/documents/invoice"
)

// EntityName is used in errors and audit entries.
const EntityName = "quotation"

// Status is the lifecycle state of a quotation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusApproved, StatusRejected, StatusExpired},
	StatusApproved: {StatusConverted},
}

// CanTransitionTo reports whether next is a listed successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusExpired, StatusConverted:
		return true
	}
	return false
}

// Quotation is an offer to a client. ConvertedToInvoiceID is set exactly
// when Status is converted.
type Quotation struct {
	entity.Document

	ExpiryDate time.Time         `db:"expiry_date" json:"expiryDate"`
	Items      billing.LineItems `db:"items" json:"items"`
	billing.DocumentTotals

	Status               Status     `db:"status" json:"status"`
	ConvertedToInvoiceID *id.ID     `db:"converted_to_invoice_id" json:"convertedToInvoiceId,omitempty"`
	SentAt               *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	DecidedAt            *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	ConvertedAt          *time.Time `db:"converted_at" json:"convertedAt,omitempty"`
}

// Draft holds the editable content of a quotation.
type Draft struct {
	ClientID         id.ID
	IssueDate        time.Time
	ExpiryDate       time.Time
	Currency         types.Currency
	Items            []billing.LineItem
	ShippingCharge   types.Money
	DocumentDiscount types.Money
	Notes            string
}

// New creates a draft quotation from d.
func New(accountID id.ID, d Draft, now time.Time) (*Quotation, error) {
	q := &Quotation{
		Document: entity.NewDocument(accountID, d.ClientID, d.IssueDate, d.Currency, now),
		Status:   StatusDraft,
	}
	if err := q.apply(d); err != nil {
		return nil, err
	}
	return q, nil
}

// Revise replaces the editable content. Only drafts can be revised.
func (q *Quotation) Revise(d Draft, now time.Time) error {
	if q.Status != StatusDraft {
		return apperror.NewInvalidTransition(EntityName, "edit", q.Status)
	}
	if err := q.apply(d); err != nil {
		return err
	}
	q.Touch(now)
	return nil
}

func (q *Quotation) apply(d Draft) error {
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

	q.ClientID = d.ClientID
	q.IssueDate = d.IssueDate
	q.ExpiryDate = d.ExpiryDate
	q.Currency = currency
	q.Notes = d.Notes
	q.Items = items
	q.DocumentTotals = totals
	return nil
}

// Validate implements entity.Validatable.
func (q *Quotation) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}
	if q.ExpiryDate.IsZero() {
		return apperror.NewValidation("expiry date is required").WithDetail("field", "expiryDate")
	}
	if q.ExpiryDate.Before(q.IssueDate) {
		return apperror.NewValidation("expiry date must not be before issue date").WithDetail("field", "expiryDate")
	}
	return nil
}

// Send moves a draft with at least one item to sent.
func (q *Quotation) Send(now time.Time) error {
	if q.Status != StatusDraft {
		return apperror.NewInvalidTransition(EntityName, "send", q.Status)
	}
	if len(q.Items) == 0 {
		return apperror.NewEmptyDocument(EntityName, q.ID)
	}
	q.Status = StatusSent
	q.SentAt = &now
	q.Touch(now)
	return nil
}

// Approve records the client's acceptance of a sent quotation.
func (q *Quotation) Approve(now time.Time) error {
	return q.decide(StatusApproved, "approve", now)
}

// Reject records the client's refusal of a sent quotation.
func (q *Quotation) Reject(now time.Time) error {
	return q.decide(StatusRejected, "reject", now)
}

func (q *Quotation) decide(next Status, action string, now time.Time) error {
	if q.Status != StatusSent {
		return apperror.NewInvalidTransition(EntityName, action, q.Status)
	}
	q.Status = next
	q.DecidedAt = &now
	q.Touch(now)
	return nil
}

// CheckExpiry expires a sent quotation once now is past its expiry date.
// It returns whether the status changed.
func (q *Quotation) CheckExpiry(now time.Time) bool {
	if q.Status != StatusSent || !now.After(q.ExpiryDate) {
		return false
	}
	q.Status = StatusExpired
	q.Touch(now)
	return true
}

// MarkConverted links the invoice created from this quotation.
func (q *Quotation) MarkConverted(invoiceID id.ID, now time.Time) error {
	if q.Status != StatusApproved {
		return apperror.NewInvalidTransition(EntityName, "convert", q.Status)
	}
	q.Status = StatusConverted
	q.ConvertedToInvoiceID = id.Ptr(invoiceID)
	q.ConvertedAt = &now
	q.Touch(now)
	return nil
}

// InvoiceSource snapshots items and totals for the invoice.
func (q *Quotation) InvoiceSource() invoice.Source {
	return invoice.Source{
		QuotationID: q.ID,
		ClientID:    q.ClientID,
		Currency:    q.Currency,
		Items:       slices.Clone(q.Items),
		Totals:      q.DocumentTotals,
		Notes:       q.Notes,
	}
}
