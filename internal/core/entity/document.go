package entity

import (
	"context"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

// Document is the shared header of quotations and invoices.
type Document struct {
	BaseDocument

	// Number is the human-readable number, unique per account and never reused.
	Number string `db:"number" json:"number"`

	ClientID  id.ID          `db:"client_id" json:"clientId"`
	IssueDate time.Time      `db:"issue_date" json:"issueDate"`
	Currency  types.Currency `db:"currency" json:"currency"`
	Notes     string         `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a document header. An empty currency falls back to
// types.DefaultCurrency.
func NewDocument(accountID, clientID id.ID, issueDate time.Time, currency types.Currency, now time.Time) Document {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return Document{
		BaseDocument: NewBaseDocument(accountID, now),
		ClientID:     clientID,
		IssueDate:    issueDate,
		Currency:     currency,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.AccountID) {
		return apperror.NewValidation("account is required").
			WithDetail("field", "accountId")
	}
	if id.IsNil(d.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}
	if d.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}
	if !d.Currency.IsValid() {
		return apperror.NewValidation("currency must be an ISO 4217 code").
			WithDetail("field", "currency").
			WithDetail("value", d.Currency.String())
	}
	return nil
}
