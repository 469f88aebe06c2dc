package domain

import (
	"context"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/tx"
	"invoicepro/pkg/logger"
)

// RunSerialized runs fn in a transaction and repeats it once when the
// version check of a concurrent writer fails. A second conflict is returned
// to the caller as CONCURRENT_MODIFICATION.
func RunSerialized(ctx context.Context, txm tx.Manager, fn func(ctx context.Context) error) error {
	err := txm.RunInTransaction(ctx, fn)
	if !apperror.IsConcurrentModification(err) {
		return err
	}
	logger.Warn(ctx, "concurrent modification, retrying once", "error", err)
	return txm.RunInTransaction(ctx, fn)
}
