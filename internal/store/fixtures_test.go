package store

import (
	"context"
	"testing"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func mustUser(t *testing.T, d *db.DB, username, role string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), d, &model.User{
		Username: username, PasswordHash: "hash", Name: username, Role: role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

// mustItem creates an item with n sub-items numbered 1..n.
func mustItem(t *testing.T, d *db.DB, itemNo int64, n int) *model.Item {
	t.Helper()
	subs := make([]model.SubItem, n)
	for i := range subs {
		subs[i] = model.SubItem{Description: "part"}
	}
	item, err := SaveItem(context.Background(), d, &model.Item{ItemNo: itemNo, Title: "found", SubItems: subs})
	if err != nil {
		t.Fatalf("SaveItem(%d): %v", itemNo, err)
	}
	return item
}

func mustLot(t *testing.T, d *db.DB, id string, basePrice int64) *model.Lot {
	t.Helper()
	lot, err := SaveLot(context.Background(), d, &model.Lot{ID: id, Name: "Lot " + id, BasePrice: basePrice})
	if err != nil {
		t.Fatalf("SaveLot(%s): %v", id, err)
	}
	return lot
}

func mustAuction(t *testing.T, d *db.DB, id, status string, lotIDs ...string) *model.Auction {
	t.Helper()
	ctx := context.Background()
	a, _, err := SaveAuction(ctx, d, &model.Auction{ID: id, Name: "Auction " + id, Status: status})
	if err != nil {
		t.Fatalf("SaveAuction(%s): %v", id, err)
	}
	if len(lotIDs) > 0 {
		if err := AssignLotsToAuction(ctx, d, id, lotIDs); err != nil {
			t.Fatalf("AssignLotsToAuction(%s): %v", id, err)
		}
	}
	return a
}

// mustLiveAuction creates a Scheduled auction holding lotIDs and forces it live.
func mustLiveAuction(t *testing.T, d *db.DB, id string, lotIDs ...string) *model.Auction {
	t.Helper()
	a := mustAuction(t, d, id, model.AuctionStatusScheduled, lotIDs...)
	if _, err := SaveAuctionState(context.Background(), d, &model.AuctionState{
		AuctionID: id, Status: model.StateLive,
	}); err != nil {
		t.Fatalf("SaveAuctionState(%s): %v", id, err)
	}
	return a
}
