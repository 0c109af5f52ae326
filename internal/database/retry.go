package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"chatvault/internal/constants"
)

// withRetry runs op, retrying transient SQLite failures with linear backoff.
// Non-transient errors return immediately.
func withRetry(ctx context.Context, name string, op func() error) error {
	attempts := constants.DefaultDatabaseRetryAttempts
	step := time.Duration(constants.DefaultRetryBackoffMs) * time.Millisecond
	ceiling := time.Duration(constants.DefaultMaxBackoffMs) * time.Millisecond

	var err error
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err = op(); err == nil {
			return nil
		}
		if !transientSQLiteError(err) {
			return fmt.Errorf("%s failed (non-retryable): %w", name, err)
		}
		if attempt >= attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
		}

		wait := step * time.Duration(attempt)
		if wait > ceiling {
			wait = ceiling
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// transientSQLiteError reports whether the error is a lock or I/O condition
// that tends to clear on its own.
func transientSQLiteError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
			return true
		}
		return false
	}

	// The driver error may be wrapped in a way that loses the typed code.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "disk I/O error")
}
