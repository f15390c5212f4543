package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestFinalizeAuction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustUser(t, database, "a", model.RoleBidder)
	b := mustUser(t, database, "b", model.RoleBidder)
	mustLot(t, database, "L1", 10000)
	mustLot(t, database, "L2", 100)
	mustLiveAuction(t, database, "A1", "L1", "L2")

	placeBid(t, database, "A1", "L1", a.ID, 10000)
	placeBid(t, database, "A1", "L1", b.ID, 10100)

	result, err := FinalizeAuction(ctx, database, "A1", time.Now())
	if err != nil {
		t.Fatalf("FinalizeAuction: %v", err)
	}
	if len(result.Winners) != 1 {
		t.Fatalf("expected 1 winner (L2 has no bids), got %d", len(result.Winners))
	}
	w := result.Winners[0]
	if w.LotID != "L1" || w.UserID != b.ID || w.Amount != 10100 {
		t.Errorf("unexpected winner: %+v", w)
	}
	if len(result.Changed) != 1 {
		t.Errorf("expected first run to report the winner as changed, got %d", len(result.Changed))
	}

	// Re-running is stable.
	again, err := FinalizeAuction(ctx, database, "A1", time.Now())
	if err != nil {
		t.Fatalf("FinalizeAuction (again): %v", err)
	}
	if len(again.Winners) != 1 || len(again.Changed) != 0 {
		t.Errorf("expected same winner and no changes, got %d winners, %d changed", len(again.Winners), len(again.Changed))
	}

	stored, _ := ListWinners(ctx, database, "A1")
	if len(stored) != 1 || stored[0].LotName != "Lot L1" || stored[0].AuctionName != "Auction A1" {
		t.Errorf("unexpected stored winners: %+v", stored)
	}

	wins, _ := WinsForUser(ctx, database, b.ID)
	if len(wins) != 1 {
		t.Errorf("expected 1 win for b, got %d", len(wins))
	}
	wins, _ = WinsForUser(ctx, database, a.ID)
	if len(wins) != 0 {
		t.Errorf("expected no wins for a, got %d", len(wins))
	}
}

func TestFinalizeAuctionTieBreaksOnEarliest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustUser(t, database, "a", model.RoleBidder)
	b := mustUser(t, database, "b", model.RoleBidder)
	mustLot(t, database, "L1", 100)
	mustLiveAuction(t, database, "A1", "L1")

	placeBid(t, database, "A1", "L1", a.ID, 100)
	later, _ := placeBid(t, database, "A1", "L1", b.ID, 200)
	UpdateBidAmount(ctx, database, later.Bid.ID, 100)

	result, err := FinalizeAuction(ctx, database, "A1", time.Now())
	if err != nil {
		t.Fatalf("FinalizeAuction: %v", err)
	}
	if len(result.Winners) != 1 || result.Winners[0].UserID != a.ID {
		t.Errorf("expected the earliest of equal bids to win, got %+v", result.Winners)
	}
}

func TestFinalizeAuctionUpdatesAndDropsStale(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustUser(t, database, "a", model.RoleBidder)
	b := mustUser(t, database, "b", model.RoleBidder)
	mustLot(t, database, "L1", 100)
	mustLot(t, database, "L2", 100)
	mustLiveAuction(t, database, "A1", "L1", "L2")

	placeBid(t, database, "A1", "L1", a.ID, 100)
	placeBid(t, database, "A1", "L2", a.ID, 100)
	FinalizeAuction(ctx, database, "A1", time.Now())

	// A later bid changes L1's winner and L2 leaves the auction.
	placeBid(t, database, "A1", "L1", b.ID, 200)
	if err := AssignLotsToAuction(ctx, database, "A1", []string{"L1"}); err != nil {
		t.Fatalf("AssignLotsToAuction: %v", err)
	}

	result, err := FinalizeAuction(ctx, database, "A1", time.Now())
	if err != nil {
		t.Fatalf("FinalizeAuction: %v", err)
	}
	if len(result.Changed) != 1 || result.Changed[0].UserID != b.ID {
		t.Errorf("expected L1 winner change to b, got %+v", result.Changed)
	}

	stored, _ := ListWinners(ctx, database, "A1")
	if len(stored) != 1 || stored[0].LotID != "L1" {
		t.Errorf("expected only L1 to keep a winner, got %+v", stored)
	}
}

func TestFinalizeAuctionMissing(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := FinalizeAuction(context.Background(), database, "nope", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
