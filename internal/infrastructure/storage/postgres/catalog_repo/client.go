package catalog_repo

import (
	"context"

	"invoicepro/internal/domain"
	"invoicepro/internal/domain/catalogs/client"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// ClientRepo implements client.Repository.
type ClientRepo struct {
	*BaseCatalogRepo[client.Client]
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[client.Client](txManager, "clients", client.EntityName, "name", "email", "company_name"),
	}
}

var _ client.Repository = (*ClientRepo)(nil)

// List retrieves clients of the account.
func (r *ClientRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*client.Client], error) {
	q := r.applySearch(r.baseSelect(f.AccountID), f.Search)
	return r.list(ctx, q, f)
}
