// Package document_repo provides PostgreSQL implementations for quotation,
// invoice and payment repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// Postgres error codes mapped to application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// immutableCols are never rewritten by Update.
var immutableCols = map[string]struct{}{
	"id":         {},
	"account_id": {},
	"version":    {},
	"created_at": {},
	"created_by": {},
}

// BaseDocumentRepo provides account-scoped CRUD with optimistic locking.
type BaseDocumentRepo[T any, P interface {
	*T
	domain.Record
}] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	defaultOrd string
}

// NewBaseDocumentRepo creates a repository over tableName selecting the db
// columns of T.
func NewBaseDocumentRepo[T any, P interface {
	*T
	domain.Record
}](txManager *postgres.TxManager, tableName, entityName, defaultOrder string) *BaseDocumentRepo[T, P] {
	return &BaseDocumentRepo[T, P]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		defaultOrd: defaultOrder,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T, P]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T, P]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a new document.
func (r *BaseDocumentRepo[T, P]) Create(ctx context.Context, entity P) error {
	data := postgres.StructToMap(entity)
	values := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			values[col] = val
		}
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, entity.GetID())
	}
	return nil
}

// Update writes entity if the stored version equals entity's version and
// then advances entity's version.
func (r *BaseDocumentRepo[T, P]) Update(ctx context.Context, entity P) error {
	q, err := r.updateQuery(entity)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, entity.GetID())
	}
	if result.RowsAffected() == 0 {
		// Either the row is gone for this account or someone else won.
		if _, getErr := r.GetByID(ctx, entity.GetAccountID(), entity.GetID()); apperror.IsNotFound(getErr) {
			return getErr
		}
		return apperror.NewConcurrentModification(r.entityName, entity.GetID().String())
	}

	entity.SetVersion(entity.GetVersion() + 1)
	return nil
}

func (r *BaseDocumentRepo[T, P]) updateQuery(entity P) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.UpdateBuilder{}, fmt.Errorf("no db tags found in %s", r.entityName)
	}

	values := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if _, skip := immutableCols[col]; skip {
			continue
		}
		if val, ok := data[col]; ok {
			values[col] = val
		}
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(values).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":         entity.GetID(),
			"account_id": entity.GetAccountID(),
			"version":    entity.GetVersion(),
		}), nil
}

// Delete removes a document row.
func (r *BaseDocumentRepo[T, P]) Delete(ctx context.Context, accountID, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, entityID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T, P]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

func (r *BaseDocumentRepo[T, P]) byID(accountID, entityID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().Where(squirrel.Eq{"id": entityID, "account_id": accountID})
}

// GetByID retrieves a document of the account.
func (r *BaseDocumentRepo[T, P]) GetByID(ctx context.Context, accountID, entityID id.ID) (P, error) {
	return r.get(ctx, r.byID(accountID, entityID), entityID)
}

// GetForUpdate retrieves a document and locks its row.
func (r *BaseDocumentRepo[T, P]) GetForUpdate(ctx context.Context, accountID, entityID id.ID) (P, error) {
	return r.get(ctx, r.byID(accountID, entityID).Suffix("FOR UPDATE"), entityID)
}

func (r *BaseDocumentRepo[T, P]) get(ctx context.Context, q squirrel.SelectBuilder, entityID id.ID) (P, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := P(new(T))
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// applyFilter adds the common account, status, client, search and date
// conditions. dateCol is the column DateFrom/DateTo bound.
func (r *BaseDocumentRepo[T, P]) applyFilter(q squirrel.SelectBuilder, f domain.ListFilter, dateCol string) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"account_id": f.AccountID})
	if len(f.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": f.Statuses})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{dateCol: *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{dateCol: *f.DateTo})
	}
	return q
}

// list counts q, then orders and pages it.
func (r *BaseDocumentRepo[T, P]) list(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[P], error) {
	result := domain.ListResult[P]{Limit: f.Limit, Offset: f.Offset, Items: []P{}}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	q = q.OrderBy(orderBy, "id")
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

// parseOrderBy accepts "col", "+col" or "-col" for any selected column.
func (r *BaseDocumentRepo[T, P]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		orderBy = r.defaultOrd
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = orderBy[1:]
	} else if strings.HasPrefix(orderBy, "+") {
		field = orderBy[1:]
	}

	for _, col := range r.selectCols {
		if col == field && col != "items" {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}

func (r *BaseDocumentRepo[T, P]) mapWriteError(err error, entityID id.ID) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("write %s: %w", r.tableName, err)
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewConcurrentModification(r.entityName, entityID.String()).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewInternal(err).
			WithDetail("constraint", pgErr.ConstraintName)
	}
	return fmt.Errorf("write %s: %w", r.tableName, err)
}
