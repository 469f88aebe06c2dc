package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/apperror"
	appctx "invoicepro/internal/core/context"
	"invoicepro/internal/core/id"
	"invoicepro/internal/infrastructure/storage/postgres"
	"invoicepro/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const (
	maxIdempotencyKeyLen    = 255
	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
)

// IdempotencyStore is implemented by postgres.IdempotencyStore.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, accountID id.ID, key, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, accountID id.ID, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, accountID id.ID, key string) error
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key header that was already processed for the account. It must
// run after Auth. 5xx responses release the key so the client can retry.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			_ = c.Error(apperror.NewValidation("idempotency key too long").WithDetail("max_length", maxIdempotencyKeyLen))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		accountID, ok := appctx.GetAccountID(ctx)
		if !ok {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(ctx, accountID, key, operation, hex.EncodeToString(hash[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// Render now so the stored body is the one the client receives.
		WriteError(c)

		// The request deadline may already have passed; the key must still settle.
		ctx = appctx.Detach(ctx)
		status := rec.Status()
		if status >= http.StatusInternalServerError {
			if err := store.ReleaseKey(ctx, accountID, key); err != nil {
				logger.Warn(ctx, "release idempotency key", "key", key, "error", err)
			}
			return
		}
		if err := store.CompleteKey(ctx, accountID, key, status, rec.Header().Get("Content-Type"), rec.body.Bytes()); err != nil {
			logger.Warn(ctx, "complete idempotency key", "key", key, "error", err)
		}
	}
}

// recordingWriter keeps a copy of the response body.
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
