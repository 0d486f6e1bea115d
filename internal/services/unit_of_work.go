package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "erario/internal/errors"
	"erario/internal/logger"
)

// errConcurrentModification is returned when a version-guarded or
// status-guarded update matched no row because another unit of work got
// there first. It never leaves the services package: runInUnit either
// retries it or turns it into ErrConcurrencyConflict.
var errConcurrentModification = errors.New("row modified concurrently")

// LedgerOptions controls the bounded retry of conflicting units of work.
type LedgerOptions struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultLedgerOptions returns 5 retries with a 10ms linear backoff.
func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{MaxRetries: 5, RetryBackoff: 10 * time.Millisecond}
}

// isRetryable reports whether err is a transient conflict worth re-running
// the whole unit of work for.
func isRetryable(err error) bool {
	if errors.Is(err, errConcurrentModification) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// runInUnit runs fn as one database transaction, re-running it from scratch
// on transient conflicts. Every attempt re-reads current state, so a retried
// unit never applies its mutation twice.
func runInUnit(ctx context.Context, db *gorm.DB, opts LedgerOptions, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.ErrConcurrencyConflict, ctx.Err())
			case <-time.After(opts.RetryBackoff * time.Duration(attempt)):
			}
		}

		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		logger.Named("ledger").Debugw("retrying unit of work after conflict", "attempt", attempt+1, "error", err)
	}
	return apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
}
