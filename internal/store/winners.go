package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// Finalized is the outcome of resolving an auction's winners.
type Finalized struct {
	// Winners holds one record per lot that received at least one bid.
	Winners []model.WinnerRecord
	// Changed is the subset of Winners that is new or differs from the
	// record stored by a previous run.
	Changed []model.WinnerRecord
}

// FinalizeAuction records the winner of every lot currently in the auction:
// the greatest amount, the earliest bid among equal amounts. Lots without
// bids get no record. Running it again replaces records in place and drops
// records for lots that no longer qualify.
func FinalizeAuction(ctx context.Context, d *db.DB, auctionID string, now time.Time) (*Finalized, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var auctionName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM auctions WHERE id = ?`+tx.ForUpdate(), auctionID,
	).Scan(&auctionName)
	if err == sql.ErrNoRows {
		return nil, notFound("auction", auctionID)
	}
	if err != nil {
		return nil, fmt.Errorf("locking auction: %w", err)
	}

	type lotRef struct{ id, name string }
	rows, err := tx.QueryContext(ctx,
		`SELECT l.id, l.name FROM auction_lots al
		 JOIN lots l ON l.id = al.lot_id
		 WHERE al.auction_id = ? ORDER BY l.id`, auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing auction lots: %w", err)
	}
	var lots []lotRef
	for rows.Next() {
		var l lotRef
		if err := rows.Scan(&l.id, &l.name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning auction lot: %w", err)
		}
		lots = append(lots, l)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("listing auction lots: %w", err)
	}

	result := &Finalized{}
	decided := now.UTC()
	keep := []any{auctionID}
	for _, l := range lots {
		w := model.WinnerRecord{AuctionID: auctionID, LotID: l.id, DecidedAt: decided,
			AuctionName: auctionName, LotName: l.name}
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id, amount FROM bids
			 WHERE auction_id = ? AND lot_id = ?
			 ORDER BY amount DESC, created_at ASC, id ASC LIMIT 1`, auctionID, l.id,
		).Scan(&w.BidID, &w.UserID, &w.Amount)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving lot %s: %w", l.id, err)
		}

		var prevUser, prevBid, prevAmount int64
		err = tx.QueryRowContext(ctx,
			`SELECT user_id, bid_id, amount FROM lot_winners WHERE auction_id = ? AND lot_id = ?`,
			auctionID, l.id,
		).Scan(&prevUser, &prevBid, &prevAmount)
		switch {
		case err == sql.ErrNoRows:
			result.Changed = append(result.Changed, w)
		case err != nil:
			return nil, fmt.Errorf("reading previous winner: %w", err)
		case prevUser != w.UserID || prevBid != w.BidID || prevAmount != w.Amount:
			result.Changed = append(result.Changed, w)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO lot_winners (auction_id, lot_id, user_id, bid_id, amount, decided_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (auction_id, lot_id) DO UPDATE SET user_id = excluded.user_id,
			     bid_id = excluded.bid_id, amount = excluded.amount, decided_at = excluded.decided_at`,
			w.AuctionID, w.LotID, w.UserID, w.BidID, w.Amount, w.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("saving winner of lot %s: %w", l.id, err)
		}
		result.Winners = append(result.Winners, w)
		keep = append(keep, l.id)
	}

	stale := `DELETE FROM lot_winners WHERE auction_id = ?`
	if len(keep) > 1 {
		stale += ` AND lot_id NOT IN (` + placeholders(len(keep)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, stale, keep...); err != nil {
		return nil, fmt.Errorf("removing stale winners: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing winners: %w", err)
	}
	return result, nil
}

const winnerSelect = `SELECT w.auction_id, w.lot_id, w.user_id, w.bid_id, w.amount, w.decided_at,
        a.name, l.name
 FROM lot_winners w
 JOIN auctions a ON a.id = w.auction_id
 JOIN lots l ON l.id = w.lot_id`

// ListWinners returns the stored winner records of an auction.
func ListWinners(ctx context.Context, q db.Querier, auctionID string) ([]model.WinnerRecord, error) {
	return queryWinners(ctx, q, winnerSelect+` WHERE w.auction_id = ? ORDER BY w.lot_id`, auctionID)
}

// WinsForUser returns every lot the user has won, most recent first.
func WinsForUser(ctx context.Context, q db.Querier, userID int64) ([]model.WinnerRecord, error) {
	return queryWinners(ctx, q, winnerSelect+` WHERE w.user_id = ? ORDER BY w.decided_at DESC, w.lot_id`, userID)
}

func queryWinners(ctx context.Context, q db.Querier, query string, args ...any) ([]model.WinnerRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing winners: %w", err)
	}
	defer rows.Close()

	var winners []model.WinnerRecord
	for rows.Next() {
		var w model.WinnerRecord
		if err := rows.Scan(&w.AuctionID, &w.LotID, &w.UserID, &w.BidID, &w.Amount, &w.DecidedAt,
			&w.AuctionName, &w.LotName); err != nil {
			return nil, fmt.Errorf("scanning winner: %w", err)
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}
