package postgres

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePendingAfter is how long a pending key may stay unfinished before
// another request may take it over.
const stalePendingAfter = time.Minute

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps Idempotency-Key records per account in sys_idempotency.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AcquireKey claims key for the account.
// Returns:
//   - (nil, nil) if the key was claimed by this request
//   - (replay, nil) if the operation already finished
//   - (nil, error) if the key is in use or was used for a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, accountID id.ID, key, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	var (
		inserted    bool
		storedOp    string
		status      IdempotencyStatus
		storedHash  string
		response    []byte
		statusCode  int
		contentType string
		updatedAt   time.Time
	)
	err := q.QueryRow(ctx, `
		INSERT INTO sys_idempotency (account_id, idempotency_key, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (account_id, idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING (xmax = 0), operation, status, request_hash, response, response_status, response_content_type, updated_at
	`, accountID, key, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&inserted, &storedOp, &status, &storedHash, &response, &statusCode, &contentType, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", storedOp).
			WithDetail("request_operation", operation)
	}

	switch status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  normalizeReplayStatus(statusCode),
			ContentType: normalizeReplayContentType(contentType),
			Body:        response,
		}, nil
	}

	if now.Sub(updatedAt) <= stalePendingAfter {
		return nil, apperror.NewIdempotencyConflict(key)
	}

	// The previous holder likely crashed. Only one reclaimer wins the update.
	tag, err := q.Exec(ctx, `
		UPDATE sys_idempotency
		SET updated_at = $1
		WHERE account_id = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5
	`, now, accountID, key, IdempotencyStatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

// CompleteKey stores the response of a finished operation for replay.
// Responses with status >= 400 are stored as failed.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, accountID id.ID, key string, statusCode int, contentType string, body []byte) error {
	status := IdempotencyStatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = IdempotencyStatusFailed
	}

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE account_id = $6 AND idempotency_key = $7
	`, status, body, statusCode, contentType, s.now(), accountID, key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// ReleaseKey forgets a pending key so the client may retry, used after
// server errors that did not change state.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, accountID id.ID, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency
		WHERE account_id = $1 AND idempotency_key = $2 AND status = $3
	`, accountID, key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}

func normalizeReplayStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

func normalizeReplayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
