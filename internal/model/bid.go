package model

import "time"

// Bid is one offer on a lot in an auction.
type Bid struct {
	ID        int64     `json:"id"`
	AuctionID string    `json:"auction_id"`
	LotID     string    `json:"lot_id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
}

// LotRef names a lot within an auction.
type LotRef struct {
	AuctionID string
	LotID     string
}

// PlaceBidRequest is the input to bid placement.
type PlaceBidRequest struct {
	AuctionID string
	LotID     string
	UserID    int64
	Amount    int64
}

// MyBid is a bidder's latest bid on one lot, compared to the lot's highest bid.
type MyBid struct {
	AuctionID     string    `json:"auction_id"`
	AuctionName   string    `json:"auction_name"`
	LotID         string    `json:"lot_id"`
	LotName       string    `json:"lot_name"`
	MyAmount      int64     `json:"my_amount"`
	HighestAmount int64     `json:"highest_amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// MyBid statuses.
const (
	BidStatusWinning = "winning"
	BidStatusOutbid  = "outbid"
)

// WinnerRecord is the finalized result of one lot in an auction.
type WinnerRecord struct {
	AuctionID string    `json:"auction_id"`
	LotID     string    `json:"lot_id"`
	UserID    int64     `json:"user_id"`
	BidID     int64     `json:"bid_id"`
	Amount    int64     `json:"amount"`
	DecidedAt time.Time `json:"decided_at"`

	// Joined fields (not always populated).
	AuctionName string `json:"auction_name,omitempty"`
	LotName     string `json:"lot_name,omitempty"`
}
