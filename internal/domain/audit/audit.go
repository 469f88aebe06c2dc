// Package audit records lifecycle transitions of billing documents.
package audit

import (
	"context"
	"encoding/json"
	"time"

	appctx "invoicepro/internal/core/context"
	"invoicepro/internal/core/id"
)

// Action names a recorded transition.
type Action string

const (
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionSend            Action = "send"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionExpire          Action = "expire"
	ActionConvert         Action = "convert"
	ActionCancel          Action = "cancel"
	ActionOverdue         Action = "overdue"
	ActionPaymentApplied  Action = "payment_applied"
	ActionPaymentReversed Action = "payment_reversed"
	ActionComplete        Action = "complete"
	ActionFail            Action = "fail"
	ActionRefund          Action = "refund"
)

// Entry is one audit record. Snapshot is the document state after the change.
type Entry struct {
	AccountID  id.ID
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Snapshot   any
	OccurredAt time.Time
}

// Recorder persists entries. Implementations write in the caller's
// transaction so the entry commits or rolls back with the change.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Record is a stored entry as returned by history queries. Snapshot holds
// the JSON document state after the change.
type Record struct {
	ID         id.ID           `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   id.ID           `json:"entityId"`
	Action     Action          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Reader returns the history of one document, newest first.
type Reader interface {
	History(ctx context.Context, accountID id.ID, entityType string, entityID id.ID, limit int) ([]Record, error)
}

// NopRecorder discards entries.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

// MemoryRecorder keeps entries in a slice. Used by service tests.
type MemoryRecorder struct {
	Entries []Entry
}

func (m *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	m.Entries = append(m.Entries, entry)
	return nil
}

// History implements Reader over the recorded entries.
func (m *MemoryRecorder) History(_ context.Context, accountID id.ID, entityType string, entityID id.ID, limit int) ([]Record, error) {
	var out []Record
	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := m.Entries[i]
		if e.AccountID != accountID || e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		snap, err := json.Marshal(e.Snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{
			ID:         id.New(),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			UserID:     e.UserID,
			Snapshot:   snap,
			OccurredAt: e.OccurredAt,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Actions lists the recorded actions in order.
func (m *MemoryRecorder) Actions() []Action {
	out := make([]Action, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the context user.
// If no user is in context, this is a no-op.
func EnrichCreatedBy(ctx context.Context, e interface{ SetCreatedBy(string) }) {
	if userID := appctx.GetUserID(ctx); userID != "" {
		e.SetCreatedBy(userID)
	}
}

// EnrichUpdatedBy sets only UpdatedBy from the context user.
func EnrichUpdatedBy(ctx context.Context, e interface{ SetUpdatedBy(string) }) {
	if userID := appctx.GetUserID(ctx); userID != "" {
		e.SetUpdatedBy(userID)
	}
}

// New builds an entry stamped with the context user.
func New(ctx context.Context, accountID id.ID, entityType string, entityID id.ID, action Action, snapshot any, at time.Time) Entry {
	return Entry{
		AccountID:  accountID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Snapshot:   snapshot,
		OccurredAt: at,
	}
}
