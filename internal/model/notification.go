package model

import "time"

// Notification is an inbox entry for one user.
type Notification struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification types.
const (
	NotificationBid        = "bid"
	NotificationOutbid     = "outbid"
	NotificationWon        = "won"
	NotificationNewAuction = "new_auction"
	NotificationSystem     = "system"
)

// Entity types referenced by notifications.
const (
	EntityLot     = "lot"
	EntityAuction = "auction"
)
