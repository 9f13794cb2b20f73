package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/betwise-ng/betwise/internal/metrics"
)

// withTx runs fn inside a transaction, committing on nil error and rolling
// back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isRetryableConflict reports whether err is a PostgreSQL serialization
// failure (40001) or deadlock (40P01).  These carry no business meaning;
// the whole transaction can simply run again.
func isRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// withTxRetry runs withTx, retrying up to attempts times when the failure is
// a retryable conflict.  Business errors surface immediately.
func withTxRetry(ctx context.Context, db *sqlx.DB, attempts int, fn func(tx *sqlx.Tx) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = withTx(ctx, db, fn)
		if err == nil || !isRetryableConflict(err) {
			return err
		}
		metrics.TxRetries.Inc()
	}
	return fmt.Errorf("tx conflict persisted after %d attempts: %w", attempts, err)
}
