// Package domain provides types shared by the document services.
package domain

import (
	"context"
	"errors"
	"time"

	"invoicepro/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
// AccountID is mandatory; repositories never return rows of another account.
type ListFilter struct {
	AccountID id.ID

	// Statuses filters by lifecycle status (any of)
	Statuses []string

	// ClientID filters by client
	ClientID *id.ID

	// Search matches number or notes (ILIKE)
	Search string

	// DateFrom/DateTo bound the issue date (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time

	// OrderBy specifies sorting (e.g., "issue_date", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter(accountID id.ID) ListFilter {
	return ListFilter{
		AccountID: accountID,
		Limit:     50,
		OrderBy:   "-issue_date",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	AfterCreate HookEvent = "after_create"
	AfterUpdate HookEvent = "after_update"
	AfterDelete HookEvent = "after_delete"
)

// Hook is a function that runs after a committed change.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// OnAnyChange registers hook for create, update and delete.
func (r *HookRegistry[T]) OnAnyChange(hook Hook[T]) {
	r.On(AfterCreate, hook)
	r.On(AfterUpdate, hook)
	r.On(AfterDelete, hook)
}

// Run executes all hooks for the specified event and joins their errors.
// The change is already committed, so callers only log the result.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	var errs []error
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
