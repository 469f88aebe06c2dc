package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/quotation"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[quotation.Quotation, *quotation.Quotation]
}

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[quotation.Quotation, *quotation.Quotation](txManager, "quotations", quotation.EntityName, "-issue_date"),
	}
}

var _ quotation.Repository = (*QuotationRepo)(nil)

// List retrieves quotations with filtering.
func (r *QuotationRepo) List(ctx context.Context, f quotation.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	q := r.applyFilter(r.baseSelect(), f.ListFilter, "issue_date")
	if f.ExpiresBefore != nil {
		q = q.Where(squirrel.Lt{"expiry_date": *f.ExpiresBefore})
	}
	return r.list(ctx, q, f.ListFilter)
}

// ListExpiryCandidates returns sent quotations whose expiry date has passed.
func (r *QuotationRepo) ListExpiryCandidates(ctx context.Context, now time.Time, limit int) ([]quotation.Ref, error) {
	sql, args, err := r.expiryQuery(now, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var refs []quotation.Ref
	if err := pgxscan.Select(ctx, r.querier(ctx), &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("list expired quotations: %w", err)
	}
	return refs, nil
}

func (r *QuotationRepo) expiryQuery(now time.Time, limit int) squirrel.SelectBuilder {
	return r.Builder().
		Select("account_id", "id").
		From(r.tableName).
		Where(squirrel.Eq{"status": string(quotation.StatusSent)}).
		Where(squirrel.Lt{"expiry_date": now}).
		OrderBy("expiry_date", "id").
		Limit(uint64(limit))
}
