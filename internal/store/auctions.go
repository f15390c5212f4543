package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// SaveAuction creates or updates an auction. published reports whether this
// save moved the auction out of Draft into Scheduled (including a new
// auction created as Scheduled).
func SaveAuction(ctx context.Context, d *db.DB, a *model.Auction) (saved *model.Auction, published bool, err error) {
	return SaveAuctionWithLots(ctx, d, a, nil)
}

// SaveAuctionWithLots saves the auction and, when lotIDs is not nil,
// replaces its lot set in the same transaction. A missing or conflicting lot
// rolls the whole save back, so a rejected create leaves no auction behind.
// An empty non-nil lotIDs clears the lot set.
func SaveAuctionWithLots(ctx context.Context, d *db.DB, a *model.Auction, lotIDs []string) (saved *model.Auction, published bool, err error) {
	if err := normalizeAuction(a); err != nil {
		return nil, false, err
	}
	if lotIDs != nil {
		if lotIDs, err = cleanLotIDs(lotIDs); err != nil {
			return nil, false, err
		}
	}

	err = retryOnUnique(ctx, func() error {
		var err error
		published, err = saveAuction(ctx, d, a, lotIDs)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	saved, err = GetAuction(ctx, d, a.ID)
	return saved, published, err
}

func saveAuction(ctx context.Context, d *db.DB, a *model.Auction, lotIDs []string) (published bool, err error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx, `SELECT status FROM auctions WHERE id = ?`+tx.ForUpdate(), a.ID).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("reading auction status: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO auctions (id, name, type, auction_date, start_time, end_time, default_bid_timer,
		     description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, type = excluded.type,
		     auction_date = excluded.auction_date, start_time = excluded.start_time,
		     end_time = excluded.end_time, default_bid_timer = excluded.default_bid_timer,
		     description = excluded.description, status = excluded.status,
		     updated_at = excluded.updated_at`,
		a.ID, a.Name, a.Type, a.Date, a.StartTime, a.EndTime, a.DefaultBidTimer,
		a.Description, a.Status, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("saving auction: %w", err)
	}

	if lotIDs != nil {
		if err := replaceAuctionLots(ctx, tx, a.ID, lotIDs); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing auction: %w", err)
	}

	return a.Status == model.AuctionStatusScheduled && previous != model.AuctionStatusScheduled, nil
}

func normalizeAuction(a *model.Auction) error {
	if a.ID == "" {
		return invalid("id", "required")
	}
	if a.Name == "" {
		return invalid("name", "required")
	}
	if a.Type == "" {
		a.Type = model.TypeGeneral
	}
	if !model.ValidAuctionType(a.Type) {
		return invalid("type", "must be expensive or general")
	}
	if a.Status == "" {
		a.Status = model.AuctionStatusDraft
	}
	if !model.ValidAuctionStatus(a.Status) {
		return invalid("status", "must be Draft or Scheduled")
	}
	if a.DefaultBidTimer == 0 {
		a.DefaultBidTimer = model.DefaultBidTimer
	}
	if a.DefaultBidTimer < 0 {
		return invalid("default_bid_timer", "must be positive")
	}
	if !model.ValidSchedule(a.Date, a.StartTime, a.EndTime) {
		return invalid("schedule", "date must be YYYY-MM-DD and times HH:MM")
	}
	return nil
}

const auctionSelect = `SELECT a.id, a.name, a.type, a.auction_date, a.start_time, a.end_time,
        a.default_bid_timer, a.description, a.status, a.created_at, a.updated_at,
        (SELECT COUNT(*) FROM auction_lots al WHERE al.auction_id = a.id) AS lot_count
 FROM auctions a`

// GetAuction returns an auction by ID, or nil if it does not exist.
func GetAuction(ctx context.Context, q db.Querier, id string) (*model.Auction, error) {
	a, err := scanAuction(q.QueryRowContext(ctx, auctionSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting auction: %w", err)
	}
	return a, nil
}

// ListAuctions returns all auctions, soonest first.
func ListAuctions(ctx context.Context, q db.Querier) ([]model.Auction, error) {
	rows, err := q.QueryContext(ctx, auctionSelect+` ORDER BY a.auction_date, a.start_time, a.id`)
	if err != nil {
		return nil, fmt.Errorf("listing auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning auction: %w", err)
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// DeleteAuction removes an auction. Its lots become unassigned and its
// override state, bids and winner records go with it.
func DeleteAuction(ctx context.Context, q db.Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM auctions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting auction: %w", err)
	}
	return expectRow(result, "auction", id)
}

func scanAuction(row rowScanner) (*model.Auction, error) {
	a := &model.Auction{}
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Date, &a.StartTime, &a.EndTime,
		&a.DefaultBidTimer, &a.Description, &a.Status, &a.CreatedAt, &a.UpdatedAt, &a.LotCount)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AssignLotsToAuction replaces the auction's lot set with lotIDs in one
// transaction. It fails with a NotFoundError for a missing auction or every
// missing lot, and with a ConflictError naming every lot that belongs to a
// different auction together with that auction. A lot must be released from
// its auction before another auction can take it.
func AssignLotsToAuction(ctx context.Context, d *db.DB, auctionID string, lotIDs []string) error {
	if auctionID == "" {
		return invalid("auction_id", "required")
	}
	lotIDs, err := cleanLotIDs(lotIDs)
	if err != nil {
		return err
	}

	return retryOnUnique(ctx, func() error {
		return assignLots(ctx, d, auctionID, lotIDs)
	})
}

func assignLots(ctx context.Context, d *db.DB, auctionID string, lotIDs []string) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var found string
	err = tx.QueryRowContext(ctx, `SELECT id FROM auctions WHERE id = ?`+tx.ForUpdate(), auctionID).Scan(&found)
	if err == sql.ErrNoRows {
		return notFound("auction", auctionID)
	}
	if err != nil {
		return fmt.Errorf("locking auction: %w", err)
	}

	if err := replaceAuctionLots(ctx, tx, auctionID, lotIDs); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE auctions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), auctionID,
	); err != nil {
		return fmt.Errorf("touching auction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing auction lots: %w", err)
	}
	return nil
}

// replaceAuctionLots swaps the auction's lot set for lotIDs inside tx after
// checking that every lot exists and no other auction holds it.
func replaceAuctionLots(ctx context.Context, tx *db.Tx, auctionID string, lotIDs []string) error {
	holders, err := lotHolders(ctx, tx, lotIDs)
	if err != nil {
		return err
	}

	var missing []string
	var conflicts []Conflict
	for _, id := range lotIDs {
		holder, ok := holders[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case holder != "" && holder != auctionID:
			conflicts = append(conflicts, Conflict{Ref: id, HeldBy: holder})
		}
	}
	if len(missing) > 0 {
		return &NotFoundError{Entity: "lot", IDs: missing}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Entity: "lot", Conflicts: conflicts}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM auction_lots WHERE auction_id = ?`, auctionID); err != nil {
		return fmt.Errorf("clearing auction lots: %w", err)
	}
	for _, id := range lotIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO auction_lots (lot_id, auction_id) VALUES (?, ?)`, id, auctionID,
		)
		if err != nil {
			return fmt.Errorf("adding lot %s to auction: %w", id, err)
		}
	}
	return nil
}

// lotHolders maps each existing lot ID to the auction holding it ("" when
// unassigned). Lots that do not exist are absent from the map.
func lotHolders(ctx context.Context, q db.Querier, lotIDs []string) (map[string]string, error) {
	holders := make(map[string]string, len(lotIDs))
	if len(lotIDs) == 0 {
		return holders, nil
	}

	args := make([]any, len(lotIDs))
	for i, id := range lotIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT l.id, al.auction_id
		 FROM lots l
		 LEFT JOIN auction_lots al ON al.lot_id = l.id
		 WHERE l.id IN (`+placeholders(len(lotIDs))+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("checking lots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var auctionID sql.NullString
		if err := rows.Scan(&id, &auctionID); err != nil {
			return nil, fmt.Errorf("scanning lot holder: %w", err)
		}
		holders[id] = auctionID.String
	}
	return holders, rows.Err()
}

// IsLotInAuction reports whether the lot is currently assigned to the auction.
func IsLotInAuction(ctx context.Context, q db.Querier, auctionID, lotID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auction_lots WHERE auction_id = ? AND lot_id = ?`, auctionID, lotID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking auction membership: %w", err)
	}
	return n > 0, nil
}

// cleanLotIDs collapses duplicate lot IDs and rejects empty ones.
func cleanLotIDs(lotIDs []string) ([]string, error) {
	lotIDs = dedupeStrings(lotIDs)
	for _, id := range lotIDs {
		if id == "" {
			return nil, invalid("lot_ids", "empty lot id")
		}
	}
	return lotIDs, nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
