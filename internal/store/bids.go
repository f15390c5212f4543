package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// DefaultHistoryLimit caps lot bid history reads.
const DefaultHistoryLimit = 100

// PlacedBid is an accepted bid together with what it displaced.
type PlacedBid struct {
	Bid *model.Bid
	// Previous is the highest bid before this one, nil for the first bid.
	Previous *model.Bid
	LotName  string
}

// PlaceBid validates a bid and appends it to the ledger in one transaction.
// Checks run in a fixed order and stop at the first failure: bidder, auction,
// live phase at now, lot membership, lot, amount, then the minimum of
// max(base price, highest + minIncrement). The membership row is locked for
// the rest of the transaction so concurrent bids on the same lot serialize.
func PlaceBid(ctx context.Context, d *db.DB, req model.PlaceBidRequest, minIncrement int64, now time.Time) (*PlacedBid, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var username, userStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT username, status FROM users WHERE id = ? AND deleted_at IS NULL`, req.UserID,
	).Scan(&username, &userStatus)
	if err == sql.ErrNoRows {
		return nil, notFound("user", strconv.FormatInt(req.UserID, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("checking bidder: %w", err)
	}
	if userStatus != model.UserStatusEnabled {
		return nil, &PreconditionError{
			Code:   CodeBidderNotEnabled,
			Reason: fmt.Sprintf("bidder account is %s", userStatus),
		}
	}

	auction, err := GetAuction(ctx, tx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, notFound("auction", req.AuctionID)
	}

	state, err := GetAuctionState(ctx, tx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	if phase := model.Phase(auction, state, now); phase != model.PhaseLive {
		return nil, &PreconditionError{
			Code:   CodeAuctionNotLive,
			Reason: fmt.Sprintf("auction %s is %s, bidding requires a live auction", req.AuctionID, phase),
		}
	}

	var member string
	err = tx.QueryRowContext(ctx,
		`SELECT lot_id FROM auction_lots WHERE auction_id = ? AND lot_id = ?`+tx.ForUpdate(),
		req.AuctionID, req.LotID,
	).Scan(&member)
	if err == sql.ErrNoRows {
		return nil, &PreconditionError{
			Code:   CodeLotNotInAuction,
			Reason: fmt.Sprintf("lot %s is not in auction %s", req.LotID, req.AuctionID),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("locking lot membership: %w", err)
	}

	var lotName string
	var basePrice int64
	err = tx.QueryRowContext(ctx,
		`SELECT name, base_price FROM lots WHERE id = ?`, req.LotID,
	).Scan(&lotName, &basePrice)
	if err == sql.ErrNoRows {
		return nil, notFound("lot", req.LotID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting lot: %w", err)
	}

	if req.Amount <= 0 {
		return nil, invalid("amount", "must be a positive whole number")
	}

	previous, err := HighestBid(ctx, tx, req.AuctionID, req.LotID)
	if err != nil {
		return nil, err
	}
	if minimum := MinimumBid(basePrice, previous, minIncrement); req.Amount < minimum {
		return nil, &BidTooLowError{Amount: req.Amount, Minimum: minimum}
	}

	bid := &model.Bid{
		AuctionID: req.AuctionID,
		LotID:     req.LotID,
		UserID:    req.UserID,
		Amount:    req.Amount,
		CreatedAt: now.UTC(),
		Username:  username,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bids (auction_id, lot_id, user_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		bid.AuctionID, bid.LotID, bid.UserID, bid.Amount, bid.CreatedAt,
	).Scan(&bid.ID)
	if err != nil {
		return nil, fmt.Errorf("recording bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bid: %w", err)
	}

	return &PlacedBid{Bid: bid, Previous: previous, LotName: lotName}, nil
}

// MinimumBid is the smallest acceptable amount: the base price for the first
// bid, otherwise at least minIncrement above the highest bid.
func MinimumBid(basePrice int64, highest *model.Bid, minIncrement int64) int64 {
	minimum := basePrice
	if highest != nil && highest.Amount+minIncrement > minimum {
		minimum = highest.Amount + minIncrement
	}
	return minimum
}

const bidSelect = `SELECT b.id, b.auction_id, b.lot_id, b.user_id, b.amount, b.created_at, u.username
 FROM bids b
 JOIN users u ON u.id = b.user_id`

// HighestBid returns the current highest bid on a lot in an auction: the
// greatest amount, the most recent bid among equal amounts. It returns nil
// when the lot has no bids.
func HighestBid(ctx context.Context, q db.Querier, auctionID, lotID string) (*model.Bid, error) {
	b, err := scanBid(q.QueryRowContext(ctx,
		bidSelect+` WHERE b.auction_id = ? AND b.lot_id = ?
		 ORDER BY b.amount DESC, b.created_at DESC, b.id DESC LIMIT 1`,
		auctionID, lotID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting highest bid: %w", err)
	}
	return b, nil
}

// GetBid returns a bid by ID, or nil if it does not exist.
func GetBid(ctx context.Context, q db.Querier, id int64) (*model.Bid, error) {
	b, err := scanBid(q.QueryRowContext(ctx, bidSelect+` WHERE b.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting bid: %w", err)
	}
	return b, nil
}

// LotBidHistory returns the bids on a lot in an auction, newest first.
// A non-positive limit means DefaultHistoryLimit.
func LotBidHistory(ctx context.Context, q db.Querier, auctionID, lotID string, limit int) ([]model.Bid, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := q.QueryContext(ctx,
		bidSelect+` WHERE b.auction_id = ? AND b.lot_id = ?
		 ORDER BY b.created_at DESC, b.id DESC LIMIT ?`,
		auctionID, lotID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

// MyBids returns the latest bid the user placed on each (auction, lot),
// newest first, marked winning when it matches the lot's highest amount.
func MyBids(ctx context.Context, q db.Querier, userID int64) ([]model.MyBid, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT b.auction_id, a.name, b.lot_id, l.name, b.amount, b.created_at,
		        (SELECT MAX(h.amount) FROM bids h
		         WHERE h.auction_id = b.auction_id AND h.lot_id = b.lot_id) AS highest
		 FROM bids b
		 JOIN auctions a ON a.id = b.auction_id
		 JOIN lots l ON l.id = b.lot_id
		 WHERE b.user_id = ?
		   AND b.id = (SELECT MAX(x.id) FROM bids x
		               WHERE x.user_id = b.user_id AND x.auction_id = b.auction_id AND x.lot_id = b.lot_id)
		 ORDER BY b.created_at DESC, b.id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user bids: %w", err)
	}
	defer rows.Close()

	var bids []model.MyBid
	for rows.Next() {
		var m model.MyBid
		if err := rows.Scan(&m.AuctionID, &m.AuctionName, &m.LotID, &m.LotName, &m.MyAmount,
			&m.CreatedAt, &m.HighestAmount); err != nil {
			return nil, fmt.Errorf("scanning user bid: %w", err)
		}
		m.Status = model.BidStatusOutbid
		if m.MyAmount >= m.HighestAmount {
			m.Status = model.BidStatusWinning
		}
		bids = append(bids, m)
	}
	return bids, rows.Err()
}

// UpdateBidAmount rewrites a bid's amount. It is an administrative
// correction and bypasses the bidding rules.
func UpdateBidAmount(ctx context.Context, q db.Querier, id, amount int64) (*model.Bid, error) {
	if amount <= 0 {
		return nil, invalid("amount", "must be a positive whole number")
	}
	result, err := q.ExecContext(ctx, `UPDATE bids SET amount = ? WHERE id = ?`, amount, id)
	if err != nil {
		return nil, fmt.Errorf("updating bid: %w", err)
	}
	if err := expectRow(result, "bid", strconv.FormatInt(id, 10)); err != nil {
		return nil, err
	}
	return GetBid(ctx, q, id)
}

// DeleteBid removes a bid from the ledger.
func DeleteBid(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM bids WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bid: %w", err)
	}
	return expectRow(result, "bid", strconv.FormatInt(id, 10))
}

// BidLots lists the (auction, lot) pairs holding at least one bid in the auction.
func BidLots(ctx context.Context, q db.Querier, auctionID string) ([]model.LotRef, error) {
	return bidPairs(ctx, q, `SELECT DISTINCT auction_id, lot_id FROM bids WHERE auction_id = ?`, auctionID)
}

// LotBidAuctions lists the (auction, lot) pairs holding at least one bid on the lot.
func LotBidAuctions(ctx context.Context, q db.Querier, lotID string) ([]model.LotRef, error) {
	return bidPairs(ctx, q, `SELECT DISTINCT auction_id, lot_id FROM bids WHERE lot_id = ?`, lotID)
}

func bidPairs(ctx context.Context, q db.Querier, query, arg string) ([]model.LotRef, error) {
	rows, err := q.QueryContext(ctx, query+` ORDER BY auction_id, lot_id`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing bid lots: %w", err)
	}
	defer rows.Close()

	var refs []model.LotRef
	for rows.Next() {
		var r model.LotRef
		if err := rows.Scan(&r.AuctionID, &r.LotID); err != nil {
			return nil, fmt.Errorf("scanning bid lot: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func scanBid(row rowScanner) (*model.Bid, error) {
	b := &model.Bid{}
	if err := row.Scan(&b.ID, &b.AuctionID, &b.LotID, &b.UserID, &b.Amount, &b.CreatedAt, &b.Username); err != nil {
		return nil, err
	}
	return b, nil
}
