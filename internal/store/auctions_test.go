package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestSaveAuctionPublished(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, published, err := SaveAuction(ctx, database, &model.Auction{ID: "A1", Name: "Spring"})
	if err != nil {
		t.Fatalf("SaveAuction: %v", err)
	}
	if published {
		t.Error("a new draft must not count as published")
	}
	if a.Status != model.AuctionStatusDraft || a.Type != model.TypeGeneral || a.DefaultBidTimer != model.DefaultBidTimer {
		t.Errorf("unexpected defaults: %+v", a)
	}

	a.Status = model.AuctionStatusScheduled
	_, published, err = SaveAuction(ctx, database, a)
	if err != nil {
		t.Fatalf("SaveAuction (schedule): %v", err)
	}
	if !published {
		t.Error("Draft to Scheduled must count as published")
	}

	_, published, _ = SaveAuction(ctx, database, a)
	if published {
		t.Error("saving a Scheduled auction again must not publish it twice")
	}
}

func TestSaveAuctionValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		auction *model.Auction
	}{
		{"missing id", &model.Auction{Name: "x"}},
		{"missing name", &model.Auction{ID: "A1"}},
		{"bad status", &model.Auction{ID: "A1", Name: "x", Status: "Live"}},
		{"bad type", &model.Auction{ID: "A1", Name: "x", Type: "bulk"}},
		{"bad date", &model.Auction{ID: "A1", Name: "x", Date: "19/10/2026", StartTime: "10:00", EndTime: "12:00"}},
		{"negative timer", &model.Auction{ID: "A1", Name: "x", DefaultBidTimer: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := SaveAuction(ctx, database, tt.auction); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAssignLotsToAuction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)
	mustAuction(t, database, "A1", model.AuctionStatusDraft)
	mustAuction(t, database, "A2", model.AuctionStatusDraft)

	if err := AssignLotsToAuction(ctx, database, "A1", []string{"L1", "L2", "L1"}); err != nil {
		t.Fatalf("AssignLotsToAuction: %v", err)
	}
	a1, _ := GetAuction(ctx, database, "A1")
	if a1.LotCount != 2 {
		t.Errorf("expected 2 lots in A1, got %d", a1.LotCount)
	}

	err := AssignLotsToAuction(ctx, database, "A2", []string{"L2"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.Conflicts[0].Ref != "L2" || conflict.Conflicts[0].HeldBy != "A1" {
		t.Errorf("expected L2 held by A1, got %+v", conflict.Conflicts)
	}

	// Releasing L2 from A1 lets A2 take it.
	if err := AssignLotsToAuction(ctx, database, "A1", []string{"L1"}); err != nil {
		t.Fatalf("AssignLotsToAuction (shrink): %v", err)
	}
	if err := AssignLotsToAuction(ctx, database, "A2", []string{"L2"}); err != nil {
		t.Fatalf("AssignLotsToAuction (A2): %v", err)
	}
	member, _ := IsLotInAuction(ctx, database, "A2", "L2")
	if !member {
		t.Error("expected L2 in A2")
	}
}

func TestAssignLotsMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLot(t, database, "L1", 0)
	mustAuction(t, database, "A1", model.AuctionStatusDraft)

	err := AssignLotsToAuction(ctx, database, "A1", []string{"L1", "L9"})
	var nf *NotFoundError
	if !errors.As(err, &nf) || len(nf.IDs) != 1 || nf.IDs[0] != "L9" {
		t.Fatalf("expected L9 not found, got %v", err)
	}

	if err := AssignLotsToAuction(ctx, database, "A9", []string{"L1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing auction, got %v", err)
	}
}

func TestDeleteAuctionCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bidder := mustUser(t, database, "bidder", model.RoleBidder)
	mustLot(t, database, "L1", 100)
	mustLiveAuction(t, database, "A1", "L1")

	if _, err := PlaceBid(ctx, database, model.PlaceBidRequest{
		AuctionID: "A1", LotID: "L1", UserID: bidder.ID, Amount: 100,
	}, 100, time.Now()); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	if err := DeleteAuction(ctx, database, "A1"); err != nil {
		t.Fatalf("DeleteAuction: %v", err)
	}

	lot, _ := GetLot(ctx, database, "L1")
	if lot == nil || lot.AuctionID != "" {
		t.Errorf("expected L1 to survive unassigned, got %+v", lot)
	}
	st, _ := GetAuctionState(ctx, database, "A1")
	if st != nil {
		t.Error("expected auction state removed")
	}
	history, _ := LotBidHistory(ctx, database, "A1", "L1", 0)
	if len(history) != 0 {
		t.Errorf("expected bids removed, got %d", len(history))
	}
}

func TestAuctionState(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)
	mustAuction(t, database, "A1", model.AuctionStatusScheduled, "L1")

	st, err := GetAuctionState(ctx, database, "A1")
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	if st != nil {
		t.Fatal("expected no override before one is saved")
	}

	ends := time.Now().Add(15 * time.Second)
	st, err = SaveAuctionState(ctx, database, &model.AuctionState{
		AuctionID: "A1", Status: model.StateLive, ActiveLotID: "L1", BidEndsAt: &ends,
	})
	if err != nil {
		t.Fatalf("SaveAuctionState: %v", err)
	}
	if st.Status != model.StateLive || st.ActiveLotID != "L1" || st.BidEndsAt == nil {
		t.Errorf("unexpected state: %+v", st)
	}

	_, err = SaveAuctionState(ctx, database, &model.AuctionState{AuctionID: "A1", ActiveLotID: "L2"})
	var pre *PreconditionError
	if !errors.As(err, &pre) || pre.Code != CodeLotNotInAuction {
		t.Errorf("expected lot_not_in_auction, got %v", err)
	}

	if _, err := SaveAuctionState(ctx, database, &model.AuctionState{AuctionID: "A1", Status: "paused"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := SaveAuctionState(ctx, database, &model.AuctionState{AuctionID: "A9"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	st, _ = SaveAuctionState(ctx, database, &model.AuctionState{AuctionID: "A1", Status: model.StateEnded})
	if st.ActiveLotID != "" || st.BidEndsAt != nil {
		t.Errorf("expected cleared active lot, got %+v", st)
	}

	states, _ := ListAuctionStates(ctx, database)
	if len(states) != 1 {
		t.Errorf("expected 1 state, got %d", len(states))
	}
}

func TestSaveAuctionWithLotsIsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)
	mustAuction(t, database, "A0", model.AuctionStatusDraft, "L1")

	_, published, err := SaveAuctionWithLots(ctx, database,
		&model.Auction{ID: "A2", Name: "Winter", Status: model.AuctionStatusScheduled}, []string{"L1", "L2"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if published {
		t.Error("a rejected save must not report a publish")
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Ref != "L1" || conflict.Conflicts[0].HeldBy != "A0" {
		t.Errorf("expected L1 held by A0, got %+v", conflict.Conflicts)
	}
	if a, _ := GetAuction(ctx, database, "A2"); a != nil {
		t.Fatalf("rejected create left auction %+v", a)
	}
	if member, _ := IsLotInAuction(ctx, database, "A2", "L2"); member {
		t.Error("rejected create assigned L2")
	}

	// An update with a missing lot keeps the stored fields.
	_, _, err = SaveAuctionWithLots(ctx, database,
		&model.Auction{ID: "A0", Name: "Renamed"}, []string{"L1", "L9"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	a0, _ := GetAuction(ctx, database, "A0")
	if a0.Name != "Auction A0" || a0.LotCount != 1 {
		t.Errorf("rejected update changed A0: %+v", a0)
	}

	saved, published, err := SaveAuctionWithLots(ctx, database,
		&model.Auction{ID: "A2", Name: "Winter", Status: model.AuctionStatusScheduled}, []string{"L2", "L2"})
	if err != nil {
		t.Fatalf("SaveAuctionWithLots: %v", err)
	}
	if !published || saved.LotCount != 1 {
		t.Errorf("expected a published auction with 1 lot, got published=%v %+v", published, saved)
	}

	// An empty set clears the lots, nil leaves them alone.
	if _, _, err := SaveAuctionWithLots(ctx, database, saved, nil); err != nil {
		t.Fatalf("SaveAuctionWithLots (nil): %v", err)
	}
	if a, _ := GetAuction(ctx, database, "A2"); a.LotCount != 1 {
		t.Errorf("nil lot set changed the lots: %d", a.LotCount)
	}
	if _, _, err := SaveAuctionWithLots(ctx, database, saved, []string{}); err != nil {
		t.Fatalf("SaveAuctionWithLots (empty): %v", err)
	}
	if a, _ := GetAuction(ctx, database, "A2"); a.LotCount != 0 {
		t.Errorf("empty lot set kept %d lots", a.LotCount)
	}
}
