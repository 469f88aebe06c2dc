package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[invoice.Invoice, *invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[invoice.Invoice, *invoice.Invoice](txManager, "invoices", invoice.EntityName, "-issue_date"),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// List retrieves invoices with filtering.
func (r *InvoiceRepo) List(ctx context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return r.list(ctx, r.listQuery(f), f.ListFilter)
}

func (r *InvoiceRepo) listQuery(f invoice.ListFilter) squirrel.SelectBuilder {
	q := r.applyFilter(r.baseSelect(), f.ListFilter, "issue_date")
	if f.QuotationID != nil {
		q = q.Where(squirrel.Eq{"quotation_id": *f.QuotationID})
	}
	if f.DueBefore != nil {
		q = q.Where(squirrel.Lt{"due_date": *f.DueBefore})
	}
	return q
}

// ListOverdueCandidates returns sent invoices with a balance past their due date.
func (r *InvoiceRepo) ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]invoice.Ref, error) {
	sql, args, err := r.overdueQuery(now, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var refs []invoice.Ref
	if err := pgxscan.Select(ctx, r.querier(ctx), &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	return refs, nil
}

func (r *InvoiceRepo) overdueQuery(now time.Time, limit int) squirrel.SelectBuilder {
	return r.Builder().
		Select("account_id", "id").
		From(r.tableName).
		Where(squirrel.Eq{"status": string(invoice.StatusSent)}).
		Where(squirrel.Gt{"amount_due": 0}).
		Where(squirrel.Lt{"due_date": now}).
		OrderBy("due_date", "id").
		Limit(uint64(limit))
}
