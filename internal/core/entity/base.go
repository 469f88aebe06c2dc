package entity

import (
	"context"
	"time"

	"invoicepro/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all persisted records.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// GetVersion returns the version the record was loaded with.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// BaseDocument extends BaseEntity with ownership and audit fields.
type BaseDocument struct {
	BaseEntity

	// AccountID is the owning account; every query is scoped by it.
	AccountID id.ID `db:"account_id" json:"accountId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument owned by accountID.
func NewBaseDocument(accountID id.ID, now time.Time) BaseDocument {
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		AccountID:  accountID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// GetID returns the record ID.
func (b *BaseDocument) GetID() id.ID {
	return b.ID
}

// GetAccountID returns the owning account.
func (b *BaseDocument) GetAccountID() id.ID {
	return b.AccountID
}

// Touch records a modification at now.
func (b *BaseDocument) Touch(now time.Time) {
	b.UpdatedAt = now
}

// SetCreatedBy sets the creator; also used as the first updater.
func (b *BaseDocument) SetCreatedBy(userID string) {
	b.CreatedBy = userID
	b.UpdatedBy = userID
}

// SetUpdatedBy sets the last updater.
func (b *BaseDocument) SetUpdatedBy(userID string) {
	b.UpdatedBy = userID
}
