package model

import "time"

// Auction is a timed sale event that lots are assigned to.
type Auction struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time,omitempty"`
	DefaultBidTimer int       `json:"default_bid_timer"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	LotCount        int       `json:"lot_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Auction statuses set by operators.
const (
	AuctionStatusDraft     = "Draft"
	AuctionStatusScheduled = "Scheduled"
)

// Auction and lot types.
const (
	TypeExpensive = "expensive"
	TypeGeneral   = "general"
)

// DefaultBidTimer is the per-lot countdown in seconds when none is configured.
const DefaultBidTimer = 15

// AuctionState is the operator override that drives a live session.
type AuctionState struct {
	AuctionID   string     `json:"auction_id"`
	Status      string     `json:"status"`
	ActiveLotID string     `json:"active_lot_id,omitempty"`
	BidEndsAt   *time.Time `json:"bid_ends_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Override statuses. They share their names with the phases they force.
const (
	StateScheduled = "scheduled"
	StateLive      = "live"
	StateEnded     = "ended"
)

// ValidAuctionType reports whether t is a known auction or lot type.
func ValidAuctionType(t string) bool {
	return t == TypeExpensive || t == TypeGeneral
}

// ValidAuctionStatus reports whether s is a known operator status.
func ValidAuctionStatus(s string) bool {
	return s == AuctionStatusDraft || s == AuctionStatusScheduled
}

// ValidStateStatus reports whether s is a known override status.
func ValidStateStatus(s string) bool {
	return s == StateScheduled || s == StateLive || s == StateEnded
}
