package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/drazba/internal/model"
)

func newTestCache(t *testing.T) *HighestBids {
	t.Helper()
	url := os.Getenv("DRAZBA_TEST_REDIS")
	if url == "" {
		t.Skip("DRAZBA_TEST_REDIS not set")
	}
	rdb, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, time.Minute)
}

func TestSetOnlyRaises(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	auction := "A-" + uuid.NewString()

	first := &model.Bid{ID: 1, AuctionID: auction, LotID: "L1", UserID: 7, Username: "a",
		Amount: 10000, CreatedAt: time.Now().UTC()}
	changed, err := c.Set(ctx, first)
	require.NoError(t, err)
	assert.True(t, changed)

	higher := &model.Bid{ID: 2, AuctionID: auction, LotID: "L1", UserID: 8, Username: "b",
		Amount: 10100, CreatedAt: time.Now().UTC()}
	changed, err = c.Set(ctx, higher)
	require.NoError(t, err)
	assert.True(t, changed)

	// A late write of the older bid must not roll the entry back.
	changed, err = c.Set(ctx, first)
	require.NoError(t, err)
	assert.False(t, changed)

	got, ok, err := c.Get(ctx, auction, "L1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10100), got.Amount)
	assert.Equal(t, int64(8), got.UserID)
	assert.Equal(t, "b", got.Username)
	assert.True(t, higher.CreatedAt.Equal(got.CreatedAt))
}

func TestGetMissAndInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	auction := "A-" + uuid.NewString()

	_, ok, err := c.Get(ctx, auction, "L1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Set(ctx, &model.Bid{ID: 1, AuctionID: auction, LotID: "L1", Amount: 5, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, auction, "L1"))

	_, ok, err = c.Get(ctx, auction, "L1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode(map[string]string{"id": "x"})
	assert.Error(t, err)

	b, err := decode(map[string]string{
		"id": "3", "user_id": "4", "amount": "500", "created_at": "2026-10-19T10:00:00Z",
		"auction_id": "A1", "lot_id": "L1", "username": "u",
	})
	require.NoError(t, err)
	assert.Equal(t, &model.Bid{ID: 3, UserID: 4, Amount: 500, AuctionID: "A1", LotID: "L1", Username: "u",
		CreatedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}, b)
}
