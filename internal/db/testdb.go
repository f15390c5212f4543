package db

import (
	"os"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewPostgresTestDB connects to the Postgres database named by
// DRAZBA_TEST_POSTGRES and empties it. The test is skipped when unset.
func NewPostgresTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("DRAZBA_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("DRAZBA_TEST_POSTGRES not set")
	}

	db, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("opening postgres test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("creating postgres test schema: %v", err)
	}

	_, err = db.DB.Exec(`TRUNCATE notifications, lot_winners, bids, auction_lots, lot_items,
		sub_items, items, auction_state, lots, auctions, users, revoked_tokens, settings
		RESTART IDENTITY CASCADE`)
	if err != nil {
		db.Close()
		t.Fatalf("truncating postgres test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
