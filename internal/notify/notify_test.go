package notify

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

type recordingPublisher struct {
	mu   sync.Mutex
	got  []model.Notification
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, n *model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, *n)
	if p.fail {
		return errors.New("relay down")
	}
	return nil
}

func newUser(t *testing.T, d *db.DB, username string) *model.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), d, &model.User{
		Username: username, PasswordHash: "hash", Role: model.RoleBidder,
	})
	require.NoError(t, err)
	return u
}

func TestDispatchStoresAndRelays(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, "u")

	pub := &recordingPublisher{}
	d := NewDispatcher(database, pub)

	stored := d.Dispatch(ctx,
		Outbid(u.ID, "L1", "Watches"),
		BidPlaced(u.ID, "L1", "Watches", 10100),
	)
	assert.Equal(t, 2, stored)

	inbox, err := store.ListNotifications(ctx, database, u.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	require.Len(t, pub.got, 2)
	assert.NotZero(t, pub.got[0].ID, "publishers see the stored notification")
	assert.Equal(t, model.NotificationOutbid, pub.got[0].Type)
}

func TestDispatchSwallowsFailures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, "u")

	failing := &recordingPublisher{fail: true}
	healthy := &recordingPublisher{}
	d := NewDispatcher(database, failing, healthy)

	invalid := model.Notification{UserID: u.ID, Type: "bogus", Title: "x"}
	stored := d.Dispatch(ctx, invalid, Won(u.ID, "L1", 500))

	assert.Equal(t, 1, stored, "an unstorable note is skipped, the rest are delivered")
	assert.Len(t, failing.got, 1)
	assert.Len(t, healthy.got, 1, "a failing publisher does not stop the others")

	count, err := store.UnreadCount(ctx, database, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `Your bid was outbid on lot "Watches"`, Outbid(1, "L1", "Watches").Message)
	assert.Equal(t, `You placed a bid of 10100 on lot "Watches"`, BidPlaced(1, "L1", "Watches", 10100).Message)
	assert.Equal(t, "Congratulations! You won lot L1 with bid 10100.", Won(1, "L1", 10100).Message)

	n := NewAuction(1, &model.Auction{ID: "A1", Name: "Autumn", Date: "2026-10-20", StartTime: "10:00"})
	assert.Equal(t, `Auction "Autumn" has been scheduled for 2026-10-20 at 10:00.`, n.Message)
	assert.Equal(t, model.EntityAuction, n.EntityType)
	assert.Equal(t, "A1", n.EntityID)
}

func TestJetStreamPublisher(t *testing.T) {
	url := os.Getenv("DRAZBA_TEST_NATS")
	if url == "" {
		t.Skip("DRAZBA_TEST_NATS not set")
	}

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pub, err := NewJetStreamPublisher(ctx, nc)
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	stream, err := js.Stream(ctx, StreamName)
	require.NoError(t, err)
	before, err := stream.Info(ctx)
	require.NoError(t, err)

	n := Won(1, "L1", 100)
	n.ID = 42
	require.NoError(t, pub.Publish(ctx, &n))

	after, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.State.Msgs+1, after.State.Msgs)
	assert.Equal(t, "drazba.notifications.won", Subject(model.NotificationWon))
}
