// Package cache keeps the highest bid of each (auction, lot) in Redis so
// read-heavy polling does not hit the database. The database stays the
// source of truth; the cache is written after a bid commits and dropped
// whenever a bid is corrected or removed.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/drazba/internal/model"
)

// DefaultTTL bounds how long an entry lives without being refreshed.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "drazba:highest:"

// setScript replaces the entry only when the new bid ranks above the cached
// one: a greater amount, or the same amount placed later (greater bid ID).
// Returns 1 when the entry was written.
var setScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'amount')
local amount = tonumber(ARGV[1])
local id = tonumber(ARGV[2])
if cur then
	cur = tonumber(cur)
	local curID = tonumber(redis.call('HGET', KEYS[1], 'id'))
	if amount < cur or (amount == cur and id <= curID) then
		return 0
	end
end
redis.call('HSET', KEYS[1],
	'amount', ARGV[1], 'id', ARGV[2], 'user_id', ARGV[3], 'username', ARGV[4],
	'created_at', ARGV[5], 'auction_id', ARGV[6], 'lot_id', ARGV[7])
redis.call('PEXPIRE', KEYS[1], ARGV[8])
return 1
`)

// HighestBids is a Redis-backed cache of the highest bid per lot.
type HighestBids struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rdb, nil
}

// New returns a cache on rdb. A non-positive ttl means DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *HighestBids {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HighestBids{rdb: rdb, ttl: ttl}
}

func key(auctionID, lotID string) string {
	return keyPrefix + auctionID + ":" + lotID
}

// Set records b as the lot's highest bid unless the cache already holds a
// higher one. It reports whether the entry changed.
func (c *HighestBids) Set(ctx context.Context, b *model.Bid) (bool, error) {
	res, err := setScript.Run(ctx, c.rdb, []string{key(b.AuctionID, b.LotID)},
		b.Amount, b.ID, b.UserID, b.Username, b.CreatedAt.UTC().Format(time.RFC3339Nano),
		b.AuctionID, b.LotID, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("caching highest bid: %w", err)
	}
	return res == 1, nil
}

// Get returns the cached highest bid. ok is false on a miss.
func (c *HighestBids) Get(ctx context.Context, auctionID, lotID string) (b *model.Bid, ok bool, err error) {
	fields, err := c.rdb.HGetAll(ctx, key(auctionID, lotID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reading cached bid: %w", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	b, err = decode(fields)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached bid: %w", err)
	}
	return b, true, nil
}

// Invalidate drops the cached entry of a lot.
func (c *HighestBids) Invalidate(ctx context.Context, auctionID, lotID string) error {
	if err := c.rdb.Del(ctx, key(auctionID, lotID)).Err(); err != nil {
		return fmt.Errorf("invalidating cached bid: %w", err)
	}
	return nil
}

func decode(fields map[string]string) (*model.Bid, error) {
	b := &model.Bid{
		AuctionID: fields["auction_id"],
		LotID:     fields["lot_id"],
		Username:  fields["username"],
	}

	var err error
	if b.ID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if b.UserID, err = strconv.ParseInt(fields["user_id"], 10, 64); err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}
	if b.Amount, err = strconv.ParseInt(fields["amount"], 10, 64); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	return b, nil
}
