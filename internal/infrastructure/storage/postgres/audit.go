package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/audit"
)

// CompressionAlgo specifies how a snapshot is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the snapshot size above which zstd is used.
const DefaultCompressThreshold = 4 * 1024

var (
	_ audit.Recorder = (*AuditRecorder)(nil)
	_ audit.Reader   = (*AuditRecorder)(nil)
)

// AuditRecorder writes audit entries into audit_log using the caller's
// transaction, so an entry exists exactly when its change committed.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRecorder creates a recorder. threshold <= 0 uses DefaultCompressThreshold.
func NewAuditRecorder(txManager *TxManager, threshold int) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	plain, compressed, algo := r.encode(snapshot)
	var plainArg any
	if plain != nil {
		plainArg = string(plain)
	}
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO audit_log (
			id, account_id, entity_type, entity_id, action, user_id,
			snapshot, snapshot_compressed, compression, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		id.New(), entry.AccountID, entry.EntityType, entry.EntityID, string(entry.Action), entry.UserID,
		plainArg, compressed, string(algo), occurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// encode returns either the plain JSON or its zstd compression.
func (r *AuditRecorder) encode(snapshot []byte) (json.RawMessage, []byte, CompressionAlgo) {
	if len(snapshot) > r.compressThreshold {
		return nil, r.encoder.EncodeAll(snapshot, nil), CompressionZstd
	}
	return snapshot, nil, CompressionNone
}

func (r *AuditRecorder) decode(plain json.RawMessage, compressed []byte, algo CompressionAlgo) (json.RawMessage, error) {
	if algo != CompressionZstd {
		return plain, nil
	}
	out, err := r.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress audit snapshot: %w", err)
	}
	return out, nil
}

// History implements audit.Reader.
func (r *AuditRecorder) History(ctx context.Context, accountID id.ID, entityType string, entityID id.ID, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, user_id,
		       snapshot, snapshot_compressed, compression, occurred_at
		FROM audit_log
		WHERE account_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY occurred_at DESC, id DESC
		LIMIT $4
	`, accountID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var (
			rec        audit.Record
			action     string
			plain      []byte
			compressed []byte
			algo       string
		)
		if err := rows.Scan(
			&rec.ID, &rec.EntityType, &rec.EntityID, &action, &rec.UserID,
			&plain, &compressed, &algo, &rec.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		rec.Action = audit.Action(action)
		if rec.Snapshot, err = r.decode(plain, compressed, CompressionAlgo(algo)); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
