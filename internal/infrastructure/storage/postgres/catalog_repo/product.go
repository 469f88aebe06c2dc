package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"invoicepro/internal/domain"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[product.Product](txManager, "products", product.EntityName, "name", "sku"),
	}
}

var _ product.Repository = (*ProductRepo)(nil)

// List retrieves products of the account.
func (r *ProductRepo) List(ctx context.Context, f product.ListFilter) (domain.ListResult[*product.Product], error) {
	return r.list(ctx, r.listQuery(f), f.ListFilter)
}

func (r *ProductRepo) listQuery(f product.ListFilter) squirrel.SelectBuilder {
	q := r.applySearch(r.baseSelect(f.AccountID), f.Search)
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return q
}
