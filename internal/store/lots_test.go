package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestSaveLotValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		lot  *model.Lot
	}{
		{"missing id", &model.Lot{Name: "x"}},
		{"missing name", &model.Lot{ID: "L1"}},
		{"bad type", &model.Lot{ID: "L1", Name: "x", Type: "cheap"}},
		{"negative base price", &model.Lot{ID: "L1", Name: "x", BasePrice: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SaveLot(ctx, database, tt.lot); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	lot := mustLot(t, database, "L1", 10000)
	if lot.Type != model.TypeGeneral {
		t.Errorf("expected default type general, got %q", lot.Type)
	}
}

func TestAssignSubItemsToLot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustItem(t, database, 100, 3)
	mustLot(t, database, "L1", 0)

	refs := []model.SubItemRef{{ItemNo: 100, SrNo: 1}, {ItemNo: 100, SrNo: 2}}
	if err := AssignSubItemsToLot(ctx, database, "L1", refs); err != nil {
		t.Fatalf("AssignSubItemsToLot: %v", err)
	}

	lot, err := GetLot(ctx, database, "L1")
	if err != nil {
		t.Fatalf("GetLot: %v", err)
	}
	if lot.SubItemCount != 2 || len(lot.SubItems) != 2 {
		t.Fatalf("expected 2 members, got %d (%v)", lot.SubItemCount, lot.SubItems)
	}

	// Same set again is a no-op, duplicates collapse.
	again := append(refs, model.SubItemRef{ItemNo: 100, SrNo: 1})
	if err := AssignSubItemsToLot(ctx, database, "L1", again); err != nil {
		t.Fatalf("AssignSubItemsToLot (repeat): %v", err)
	}
	lot, _ = GetLot(ctx, database, "L1")
	if lot.SubItemCount != 2 {
		t.Errorf("expected 2 members after repeat, got %d", lot.SubItemCount)
	}

	// Replacing the set releases dropped members.
	if err := AssignSubItemsToLot(ctx, database, "L1", []model.SubItemRef{{ItemNo: 100, SrNo: 3}}); err != nil {
		t.Fatalf("AssignSubItemsToLot (replace): %v", err)
	}
	item, _ := GetItem(ctx, database, 100)
	if item.SubItems[0].LotID != "" || item.SubItems[2].LotID != "L1" {
		t.Errorf("unexpected membership after replace: %+v", item.SubItems)
	}
}

func TestAssignSubItemsConflictNamesHolder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustItem(t, database, 100, 2)
	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)

	if err := AssignSubItemsToLot(ctx, database, "L1", []model.SubItemRef{{ItemNo: 100, SrNo: 1}}); err != nil {
		t.Fatalf("AssignSubItemsToLot(L1): %v", err)
	}

	err := AssignSubItemsToLot(ctx, database, "L2", []model.SubItemRef{{ItemNo: 100, SrNo: 1}, {ItemNo: 100, SrNo: 2}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %T", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Ref != "100/1" || conflict.Conflicts[0].HeldBy != "L1" {
		t.Errorf("expected conflict on 100/1 held by L1, got %+v", conflict.Conflicts)
	}

	// The failed call changed nothing.
	l2, _ := GetLot(ctx, database, "L2")
	if l2.SubItemCount != 0 {
		t.Errorf("expected L2 to stay empty, got %d", l2.SubItemCount)
	}
}

func TestAssignSubItemsMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustItem(t, database, 100, 1)
	mustLot(t, database, "L1", 0)

	err := AssignSubItemsToLot(ctx, database, "L1", []model.SubItemRef{{ItemNo: 100, SrNo: 1}, {ItemNo: 100, SrNo: 9}, {ItemNo: 5, SrNo: 1}})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if len(nf.IDs) != 2 {
		t.Errorf("expected both missing refs reported, got %v", nf.IDs)
	}

	if err := AssignSubItemsToLot(ctx, database, "nope", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing lot, got %v", err)
	}
	if err := AssignSubItemsToLot(ctx, database, "L1", []model.SubItemRef{{ItemNo: 0, SrNo: 1}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad ref, got %v", err)
	}
}

func TestListLotsByAuction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLot(t, database, "L1", 0)
	mustLot(t, database, "L2", 0)
	mustAuction(t, database, "A1", model.AuctionStatusDraft, "L1")

	all, err := ListLots(ctx, database, "")
	if err != nil {
		t.Fatalf("ListLots: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 lots, got %d", len(all))
	}

	inAuction, _ := ListLots(ctx, database, "A1")
	if len(inAuction) != 1 || inAuction[0].ID != "L1" || inAuction[0].AuctionID != "A1" {
		t.Errorf("expected only L1 in A1, got %+v", inAuction)
	}
}

func TestDeleteLot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustItem(t, database, 100, 1)
	mustLot(t, database, "L1", 0)
	AssignSubItemsToLot(ctx, database, "L1", []model.SubItemRef{{ItemNo: 100, SrNo: 1}})

	if err := DeleteLot(ctx, database, "L1"); err != nil {
		t.Fatalf("DeleteLot: %v", err)
	}
	item, _ := GetItem(ctx, database, 100)
	if item.SubItems[0].LotID != "" {
		t.Errorf("expected sub-item released, got lot %q", item.SubItems[0].LotID)
	}
	if err := DeleteLot(ctx, database, "L1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
