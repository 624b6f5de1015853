package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"financemanager/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// RetryPolicy controls how often a unit of work is re-run after a
// transient storage failure.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the DB_TX_MAX_ATTEMPTS/DB_TX_BACKOFF defaults.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 50 * time.Millisecond}

// ErrConcurrentUpdate reports that a guarded write matched no row because
// another writer changed it first. RunInTx treats it as transient.
var ErrConcurrentUpdate = errors.New("row changed by a concurrent update")

// RunInTx executes fn inside a database transaction. When the transaction
// fails with a transient error the whole of fn is executed again in a fresh
// transaction, so every read inside fn sees current state on each attempt.
// Individual statements are never retried on their own.
func RunInTx(ctx context.Context, db *gorm.DB, policy RetryPolicy, fn func(tx *gorm.DB) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsTransient(err) || attempt == attempts {
			return err
		}

		logger.Named("database").Warnw("transient transaction failure, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Backoff * time.Duration(attempt)):
		}
	}
	return err
}

// IsTransient reports whether err is a serialization failure or deadlock on
// Postgres, or a busy/locked database on SQLite.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConcurrentUpdate) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}
