package model

import (
	"fmt"
	"time"
)

// Lot is a sellable group of sub-items with one base price.
type Lot struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	BasePrice    int64     `json:"base_price"`
	SubItemCount int       `json:"sub_item_count"`
	AuctionID    string    `json:"auction_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated by single-lot reads.
	SubItems []SubItemRef `json:"sub_items,omitempty"`
}

// SubItemRef identifies one sub-item row of an item.
type SubItemRef struct {
	ItemNo int64 `json:"item_no"`
	SrNo   int   `json:"sr_no"`
}

func (r SubItemRef) String() string {
	return fmt.Sprintf("%d/%d", r.ItemNo, r.SrNo)
}
