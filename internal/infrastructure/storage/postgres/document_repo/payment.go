package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/payment"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseDocumentRepo[payment.Payment, *payment.Payment]
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[payment.Payment, *payment.Payment](txManager, "payments", payment.EntityName, "-created_at"),
	}
}

var _ payment.Repository = (*PaymentRepo)(nil)

// List retrieves payments. Dates bound paid_at; ClientID is ignored.
func (r *PaymentRepo) List(ctx context.Context, f payment.ListFilter) (domain.ListResult[*payment.Payment], error) {
	return r.list(ctx, r.listQuery(f), f.ListFilter)
}

func (r *PaymentRepo) listQuery(f payment.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect().Where(squirrel.Eq{"account_id": f.AccountID})
	if len(f.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": f.Statuses})
	}
	if f.InvoiceID != nil {
		q = q.Where(squirrel.Eq{"invoice_id": *f.InvoiceID})
	}
	if len(f.Methods) > 0 {
		methods := make([]string, len(f.Methods))
		for i, m := range f.Methods {
			methods[i] = string(m)
		}
		q = q.Where(squirrel.Eq{"method": methods})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"transaction_reference": "%" + f.Search + "%"})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"paid_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"paid_at": *f.DateTo})
	}
	return q
}
