package store

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// maxAttempts bounds how often an allocation is retried after losing a
// uniqueness race to a concurrent transaction.
const maxAttempts = 3

// isUniqueViolation reports whether err is a unique or primary key violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// retryOnUnique runs fn again when it fails on a uniqueness violation. The
// next attempt sees the committed winner and reports a precise conflict.
func retryOnUnique(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isUniqueViolation(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
