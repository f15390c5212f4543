package setup

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/store"
)

func TestLevelRouterSplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(newLevelRouter(&out, &errOut)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("bid placed")
	logger.Warn("cache down")
	logger.Error("commit failed")

	if strings.Contains(out.String(), "hidden") || strings.Contains(errOut.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
	if !strings.Contains(out.String(), "bid placed") || !strings.Contains(out.String(), "cache down") {
		t.Errorf("stdout missing info/warn records: %q", out.String())
	}
	if strings.Contains(out.String(), "commit failed") {
		t.Error("error record leaked to stdout")
	}
	if !strings.Contains(errOut.String(), "commit failed") || !strings.Contains(errOut.String(), "component=test") {
		t.Errorf("stderr missing error record: %q", errOut.String())
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("DRAZBA_TEST_ADDR", ":9090")
	t.Setenv("DRAZBA_TEST_INC", "250")
	t.Setenv("DRAZBA_TEST_BAD", "many")
	t.Setenv("DRAZBA_TEST_RATE", "0.5")

	if got := Getenv("DRAZBA_TEST_ADDR", ":8080"); got != ":9090" {
		t.Errorf("Getenv = %q", got)
	}
	if got := Getenv("DRAZBA_TEST_UNSET", ":8080"); got != ":8080" {
		t.Errorf("Getenv fallback = %q", got)
	}
	if got := GetenvInt64("DRAZBA_TEST_INC", 100); got != 250 {
		t.Errorf("GetenvInt64 = %d", got)
	}
	if got := GetenvInt64("DRAZBA_TEST_BAD", 100); got != 100 {
		t.Errorf("GetenvInt64 malformed = %d", got)
	}
	if got := GetenvFloat("DRAZBA_TEST_RATE", 2); got != 0.5 {
		t.Errorf("GetenvFloat = %v", got)
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	b, _ := GeneratePassword(16)
	if len(a) != 16 {
		t.Errorf("expected 16 characters, got %d", len(a))
	}
	if a == b {
		t.Error("two passwords are equal")
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	database := db.NewTestDB(t)

	password, err := EnsureAdmin(ctx, database, "Admin")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if password == "" {
		t.Fatal("expected a password for the new admin")
	}

	u, err := store.GetUserByUsername(ctx, database, "Admin")
	if err != nil || u == nil {
		t.Fatalf("admin not stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		t.Error("stored hash does not match the returned password")
	}

	again, err := EnsureAdmin(ctx, database, "Other")
	if err != nil {
		t.Fatalf("EnsureAdmin again: %v", err)
	}
	if again != "" {
		t.Error("second call should not create another admin")
	}
}

func TestTracingDisabled(t *testing.T) {
	shutdown, err := Tracing(context.Background(), "")
	if err != nil {
		t.Fatalf("Tracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
