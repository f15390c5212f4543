package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/erazemk/drazba/internal/db"
)

func TestIsUniqueViolation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustItem(t, database, 100, 1)
	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)

	insert := `INSERT INTO lot_items (item_no, sr_no, lot_id) VALUES (100, 1, ?)`
	if _, err := database.ExecContext(ctx, insert, "L1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, sqliteErr := database.ExecContext(ctx, insert, "L2")
	if sqliteErr == nil {
		t.Fatal("expected the second insert to violate the primary key")
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sqlite primary key", sqliteErr, true},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"wrapped postgres unique", fmt.Errorf("adding lot: %w", &pq.Error{Code: "23505"}), true},
		{"postgres foreign key", &pq.Error{Code: "23503"}, false},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryOnUnique(t *testing.T) {
	unique := &pq.Error{Code: "23505"}

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := retryOnUnique(context.Background(), func() error {
			calls++
			if calls < maxAttempts {
				return unique
			}
			return nil
		})
		if err != nil || calls != maxAttempts {
			t.Errorf("got err %v after %d calls", err, calls)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryOnUnique(context.Background(), func() error {
			calls++
			return unique
		})
		if !isUniqueViolation(err) || calls != maxAttempts {
			t.Errorf("got err %v after %d calls", err, calls)
		}
	})

	t.Run("other errors are final", func(t *testing.T) {
		calls := 0
		err := retryOnUnique(context.Background(), func() error {
			calls++
			return ErrConflict
		})
		if !errors.Is(err, ErrConflict) || calls != 1 {
			t.Errorf("got err %v after %d calls", err, calls)
		}
	})

	t.Run("cancelled context stops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := retryOnUnique(ctx, func() error {
			calls++
			return unique
		})
		if !errors.Is(err, context.Canceled) || calls != 1 {
			t.Errorf("got err %v after %d calls", err, calls)
		}
	})
}
