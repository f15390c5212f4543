package model

import "time"

// Item is a parent record of found property, identified by its item number.
type Item struct {
	ItemNo    int64     `json:"item_no"`
	Title     string    `json:"title,omitempty"`
	FoundAt   string    `json:"found_at,omitempty"`
	PhotoMIME string    `json:"photo_mime,omitempty"`
	SubItems  []SubItem `json:"sub_items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubItem is one physical row of an item.
type SubItem struct {
	ItemNo      int64  `json:"item_no"`
	SrNo        int    `json:"sr_no"`
	Description string `json:"description"`
	Qty         int    `json:"qty"`
	Condition   string `json:"condition,omitempty"`
	Make        string `json:"make,omitempty"`
	MakeNo      string `json:"make_no,omitempty"`

	// LotID is the lot currently holding the sub-item, if any.
	LotID string `json:"lot_id,omitempty"`
}

// Ref returns the sub-item's identity.
func (s SubItem) Ref() SubItemRef {
	return SubItemRef{ItemNo: s.ItemNo, SrNo: s.SrNo}
}
