// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"invoicepro/internal/core/id"
)

// UserContext contains the authenticated caller. Every record is owned by
// AccountID, which is the token subject.
type UserContext struct {
	UserID    string
	AccountID id.ID
	Email     string
	Role      string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetAccountID returns the owning account of the current request.
func GetAccountID(ctx context.Context) (id.ID, bool) {
	if u := GetUser(ctx); u != nil && !id.IsNil(u.AccountID) {
		return u.AccountID, true
	}
	return id.ID{}, false
}
