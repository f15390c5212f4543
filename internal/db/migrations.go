package db

import "fmt"

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid on every supported driver.
// Append new migrations at the end.
var migrations = []string{
	// Migration 1: lookup indexes for membership and ledger reads.
	`CREATE INDEX IF NOT EXISTS idx_lot_items_lot ON lot_items(lot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_auction_lots_auction ON auction_lots(auction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_lot ON bids(auction_id, lot_id, amount)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_user ON bids(user_id, auction_id, lot_id)`,

	// Migration 2: notification inbox ordering.
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
}

// Migrate ensures the schema exists and runs the migrations.
func Migrate(d *DB) error {
	if err := EnsureSchema(d); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := d.DB.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
