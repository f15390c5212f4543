package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// SaveAuctionState upserts the override record of an auction. An empty
// status means scheduled. The active lot, when set, must belong to the auction.
func SaveAuctionState(ctx context.Context, q db.Querier, st *model.AuctionState) (*model.AuctionState, error) {
	if st.AuctionID == "" {
		return nil, invalid("auction_id", "required")
	}
	if st.Status == "" {
		st.Status = model.StateScheduled
	}
	if !model.ValidStateStatus(st.Status) {
		return nil, invalid("status", "must be scheduled, live or ended")
	}

	a, err := GetAuction(ctx, q, st.AuctionID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("auction", st.AuctionID)
	}

	if st.ActiveLotID != "" {
		member, err := IsLotInAuction(ctx, q, st.AuctionID, st.ActiveLotID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, &PreconditionError{
				Code:   CodeLotNotInAuction,
				Reason: fmt.Sprintf("lot %s is not in auction %s", st.ActiveLotID, st.AuctionID),
			}
		}
	}

	var activeLot sql.NullString
	if st.ActiveLotID != "" {
		activeLot = sql.NullString{String: st.ActiveLotID, Valid: true}
	}
	var bidEnds *time.Time
	if st.BidEndsAt != nil {
		t := st.BidEndsAt.UTC()
		bidEnds = &t
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO auction_state (auction_id, status, active_lot_id, bid_ends_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (auction_id) DO UPDATE SET status = excluded.status,
		     active_lot_id = excluded.active_lot_id, bid_ends_at = excluded.bid_ends_at,
		     updated_at = excluded.updated_at`,
		st.AuctionID, st.Status, activeLot, bidEnds, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("saving auction state: %w", err)
	}

	return GetAuctionState(ctx, q, st.AuctionID)
}

// GetAuctionState returns the override record of an auction, or nil if none is set.
func GetAuctionState(ctx context.Context, q db.Querier, auctionID string) (*model.AuctionState, error) {
	st, err := scanAuctionState(q.QueryRowContext(ctx,
		`SELECT auction_id, status, active_lot_id, bid_ends_at, updated_at
		 FROM auction_state WHERE auction_id = ?`, auctionID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting auction state: %w", err)
	}
	return st, nil
}

// ListAuctionStates returns every override record, most recently changed first.
func ListAuctionStates(ctx context.Context, q db.Querier) ([]model.AuctionState, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT auction_id, status, active_lot_id, bid_ends_at, updated_at
		 FROM auction_state ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing auction states: %w", err)
	}
	defer rows.Close()

	var states []model.AuctionState
	for rows.Next() {
		st, err := scanAuctionState(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning auction state: %w", err)
		}
		states = append(states, *st)
	}
	return states, rows.Err()
}

func scanAuctionState(row rowScanner) (*model.AuctionState, error) {
	st := &model.AuctionState{}
	var activeLot sql.NullString
	if err := row.Scan(&st.AuctionID, &st.Status, &activeLot, &st.BidEndsAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.ActiveLotID = activeLot.String
	return st, nil
}
