package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, &model.User{
		Username: "testuser", PasswordHash: "hash123", Name: "Test", Role: model.RoleBidder,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Status != model.UserStatusEnabled {
		t.Errorf("expected default status Enabled, got %q", user.Status)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Role != model.RoleBidder {
		t.Errorf("expected role 'bidder', got %q", got.Role)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustUser(t, database, "alice", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v", user)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsersByRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustUser(t, database, "a", model.RoleBidder)
	mustUser(t, database, "b", model.RoleManager)

	all, err := ListUsers(ctx, database, "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 users, got %d", len(all))
	}

	bidders, _ := ListUsers(ctx, database, model.RoleBidder)
	if len(bidders) != 1 || bidders[0].Username != "a" {
		t.Errorf("expected only bidder 'a', got %+v", bidders)
	}
}

func TestListEnabledBidderIDs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	enabled := mustUser(t, database, "enabled", model.RoleBidder)
	disabled := mustUser(t, database, "disabled", model.RoleBidder)
	mustUser(t, database, "staff", model.RoleManager)

	disabled.Status = model.UserStatusDisabled
	if err := UpdateUser(ctx, database, disabled); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	ids, err := ListEnabledBidderIDs(ctx, database)
	if err != nil {
		t.Fatalf("ListEnabledBidderIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != enabled.ID {
		t.Errorf("expected [%d], got %v", enabled.ID, ids)
	}
}

func TestDeleteUserFreesUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "deleteme", model.RoleBidder)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database, "")
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	mustUser(t, database, "deleteme", model.RoleBidder)

	if err := DeleteUser(ctx, database, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "pwuser", model.RoleBidder)
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}

	if err := UpdateUserPassword(ctx, database, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}
