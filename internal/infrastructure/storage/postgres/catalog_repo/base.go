// Package catalog_repo provides read-only PostgreSQL repositories for the
// account's clients and products. Both catalogs are maintained elsewhere;
// this service only references them from documents.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo reads catalog rows scoped by account.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	searchCols []string
}

// NewBaseCatalogRepo creates a catalog repository. searchCols are matched by
// ListFilter.Search with ILIKE.
func NewBaseCatalogRepo[T any](txManager *postgres.TxManager, tableName, entityName string, searchCols ...string) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		searchCols: searchCols,
	}
}

func (r *BaseCatalogRepo[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) baseSelect(accountID id.ID) squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"account_id": accountID})
}

// GetByID retrieves a catalog row of the account.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, accountID, entityID id.ID) (*T, error) {
	sql, args, err := r.baseSelect(accountID).Where(squirrel.Eq{"id": entityID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

func (r *BaseCatalogRepo[T]) applySearch(q squirrel.SelectBuilder, search string) squirrel.SelectBuilder {
	search = strings.TrimSpace(search)
	if search == "" || len(r.searchCols) == 0 {
		return q
	}
	or := make(squirrel.Or, 0, len(r.searchCols))
	for _, col := range r.searchCols {
		or = append(or, squirrel.ILike{col: "%" + search + "%"})
	}
	return q.Where(or)
}

// list counts q and returns one page ordered by name.
func (r *BaseCatalogRepo[T]) list(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[*T], error) {
	result := domain.ListResult[*T]{Limit: f.Limit, Offset: f.Offset, Items: []*T{}}
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	q = q.OrderBy("name", "id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}
