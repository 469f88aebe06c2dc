// Package payment records money received against invoices. A payment changes
// its invoice only while it is completed: completing applies the amount,
// refunding reverses it.
package payment

import (
	"context"
	"slices"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

// EntityName is used in errors and audit entries.
const EntityName = "payment"

// Method is the channel the money arrived through.
type Method string

const (
	MethodStripe       Method = "stripe"
	MethodPaystack     Method = "paystack"
	MethodFlutterwave  Method = "flutterwave"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

// Methods lists the accepted payment methods.
var Methods = []Method{MethodStripe, MethodPaystack, MethodFlutterwave, MethodBankTransfer, MethodCash}

func (m Method) IsValid() bool {
	return slices.Contains(Methods, m)
}

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
}

// CanTransitionTo reports whether next is a listed successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Payment is money received for one invoice. Amount is in minor units of
// Currency, which always equals the invoice currency.
type Payment struct {
	entity.BaseDocument

	InvoiceID            id.ID            `db:"invoice_id" json:"invoiceId"`
	Amount               types.MinorUnits `db:"amount" json:"amount"`
	Currency             types.Currency   `db:"currency" json:"currency"`
	Method               Method           `db:"method" json:"method"`
	Status               Status           `db:"status" json:"status"`
	TransactionReference string           `db:"transaction_reference" json:"transactionReference,omitempty"`
	PaidAt               *time.Time       `db:"paid_at" json:"paidAt,omitempty"`
	RefundedAt           *time.Time       `db:"refunded_at" json:"refundedAt,omitempty"`
	Notes                string           `db:"notes" json:"notes,omitempty"`
}

// Input describes a payment to record. Amount is in major units. An empty
// Currency means the invoice currency. Without Pending the payment is
// recorded as completed and applied at once.
type Input struct {
	InvoiceID            id.ID
	Amount               types.Money
	Currency             types.Currency
	Method               Method
	Pending              bool
	TransactionReference string
	PaidAt               *time.Time
	Notes                string
}

// New builds a payment for an invoice in currency. The amount must be
// positive and representable in the currency's minor units.
func New(accountID id.ID, in Input, currency types.Currency, now time.Time) (*Payment, error) {
	if !in.Method.IsValid() {
		return nil, apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method))
	}
	amount, err := minorUnits(in.Amount, currency)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		BaseDocument:         entity.NewBaseDocument(accountID, now),
		InvoiceID:            in.InvoiceID,
		Amount:               amount,
		Currency:             currency,
		Method:               in.Method,
		Status:               StatusPending,
		TransactionReference: in.TransactionReference,
		Notes:                in.Notes,
	}
	if !in.Pending {
		paidAt := now
		if in.PaidAt != nil {
			paidAt = *in.PaidAt
		}
		p.Status = StatusCompleted
		p.PaidAt = &paidAt
	}
	return p, nil
}

func minorUnits(amount types.Money, currency types.Currency) (types.MinorUnits, error) {
	exp := currency.MinorUnitExponent()
	if !amount.IsPositive() {
		return 0, apperror.NewInvalidAmount(amount.String())
	}
	if !types.RoundToCurrency(amount, exp).Equal(amount) {
		return 0, apperror.NewInvalidAmount(amount.String()).
			WithDetail("reason", "more decimals than the currency allows")
	}
	m, err := types.ToMinorUnits(amount, exp)
	if err != nil {
		return 0, apperror.NewInvalidAmount(amount.String()).
			WithDetail("reason", "amount is out of range")
	}
	return m, nil
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(_ context.Context) error {
	if id.IsNil(p.InvoiceID) {
		return apperror.NewValidation("invoice is required").WithDetail("field", "invoiceId")
	}
	if p.Amount <= 0 {
		return apperror.NewInvalidAmount(p.Amount.Format(p.Currency.MinorUnitExponent()))
	}
	return nil
}

// Complete confirms a pending payment.
func (p *Payment) Complete(now time.Time) error {
	if err := p.transition(StatusCompleted, "complete"); err != nil {
		return err
	}
	p.PaidAt = &now
	p.Touch(now)
	return nil
}

// Fail marks a pending payment as failed.
func (p *Payment) Fail(now time.Time) error {
	if err := p.transition(StatusFailed, "fail"); err != nil {
		return err
	}
	p.Touch(now)
	return nil
}

// Refund marks a completed payment refunded.
func (p *Payment) Refund(now time.Time) error {
	if err := p.transition(StatusRefunded, "refund"); err != nil {
		return err
	}
	p.RefundedAt = &now
	p.Touch(now)
	return nil
}

func (p *Payment) transition(next Status, action string) error {
	if !p.Status.CanTransitionTo(next) {
		return apperror.NewInvalidTransition(EntityName, action, p.Status)
	}
	p.Status = next
	return nil
}
