// Package bidding runs the auction workflows on top of the store: bid
// placement with per-lot serialization, highest-bid reads, winner
// resolution and the notifications they produce.
package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/notify"
	"github.com/erazemk/drazba/internal/store"
)

// DefaultMinIncrement is how far a bid must exceed the current highest bid.
const DefaultMinIncrement int64 = 100

const instrumentation = "github.com/erazemk/drazba/internal/bidding"

// Notifier delivers notifications without reporting failures.
type Notifier interface {
	Dispatch(ctx context.Context, notes ...model.Notification) int
}

// Cache holds the highest bid per lot outside the database.
type Cache interface {
	Set(ctx context.Context, b *model.Bid) (bool, error)
	Get(ctx context.Context, auctionID, lotID string) (*model.Bid, bool, error)
	Invalidate(ctx context.Context, auctionID, lotID string) error
}

// Service places bids and resolves winners.
type Service struct {
	db           *db.DB
	notifier     Notifier
	cache        Cache
	locks        *lotLocks
	now          func() time.Time
	minIncrement int64

	tracer   trace.Tracer
	accepted metric.Int64Counter
	rejected metric.Int64Counter
	winners  metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithCache reads and refreshes highest bids through c.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMinIncrement sets the minimum raise over the highest bid.
func WithMinIncrement(n int64) Option {
	return func(s *Service) { s.minIncrement = n }
}

// NewService returns a service that stores data in d and sends notifications
// through notifier. A nil notifier stores notifications directly in d.
func NewService(d *db.DB, notifier Notifier, opts ...Option) (*Service, error) {
	if notifier == nil {
		notifier = notify.NewDispatcher(d)
	}
	s := &Service{
		db:           d,
		notifier:     notifier,
		locks:        newLotLocks(),
		now:          time.Now,
		minIncrement: DefaultMinIncrement,
		tracer:       otel.Tracer(instrumentation),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minIncrement <= 0 {
		return nil, fmt.Errorf("minimum increment must be positive, got %d", s.minIncrement)
	}

	meter := otel.Meter(instrumentation)
	var err error
	if s.accepted, err = meter.Int64Counter("drazba.bids.accepted",
		metric.WithDescription("Bids recorded in the ledger")); err != nil {
		return nil, fmt.Errorf("creating accepted counter: %w", err)
	}
	if s.rejected, err = meter.Int64Counter("drazba.bids.rejected",
		metric.WithDescription("Bids refused, by reason")); err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	if s.winners, err = meter.Int64Counter("drazba.winners.changed",
		metric.WithDescription("Winner records created or changed by finalization")); err != nil {
		return nil, fmt.Errorf("creating winners counter: %w", err)
	}
	return s, nil
}

// MinIncrement returns the configured minimum raise.
func (s *Service) MinIncrement() int64 {
	return s.minIncrement
}

// PlaceBid records a bid if it passes every check. Bids on the same lot of
// the same auction are serialized. Once the bid is committed the previous
// highest bidder is told they were outbid and the bidder gets a
// confirmation; neither can undo the bid.
func (s *Service) PlaceBid(ctx context.Context, req model.PlaceBidRequest) (*model.Bid, error) {
	ctx, span := s.tracer.Start(ctx, "bidding.place_bid", trace.WithAttributes(
		attribute.String("auction.id", req.AuctionID),
		attribute.String("lot.id", req.LotID),
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("bid.amount", req.Amount),
	))
	defer span.End()

	unlock := s.locks.lock(req.AuctionID, req.LotID)
	placed, err := store.PlaceBid(ctx, s.db, req, s.minIncrement, s.now())
	if err == nil {
		s.refreshCache(context.WithoutCancel(ctx), placed.Bid)
	}
	unlock()

	if err != nil {
		reason := rejectReason(err)
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		span.SetAttributes(attribute.Bool("bid.accepted", false), attribute.String("bid.reject_reason", reason))
		if reason == "internal" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "placing bid failed")
		}
		return nil, err
	}

	bid := placed.Bid
	s.accepted.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("bid.accepted", true), attribute.Int64("bid.id", bid.ID))
	slog.Info("bid placed", "bid", bid.ID, "user", bid.UserID, "auction", bid.AuctionID,
		"lot", bid.LotID, "amount", bid.Amount)

	// The request may be gone by now; side effects run to completion anyway.
	after := context.WithoutCancel(ctx)

	var notes []model.Notification
	if prev := placed.Previous; prev != nil && prev.UserID != bid.UserID {
		notes = append(notes, notify.Outbid(prev.UserID, bid.LotID, placed.LotName))
	}
	notes = append(notes, notify.BidPlaced(bid.UserID, bid.LotID, placed.LotName, bid.Amount))
	s.notifier.Dispatch(after, notes...)

	return bid, nil
}

func rejectReason(err error) string {
	var pre *store.PreconditionError
	switch {
	case errors.As(err, &pre):
		return pre.Code
	case errors.Is(err, store.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, store.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func (s *Service) refreshCache(ctx context.Context, b *model.Bid) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Set(ctx, b); err != nil {
		slog.Warn("updating highest bid cache failed", "auction", b.AuctionID, "lot", b.LotID, "error", err)
	}
}

// dropCached invalidates the cached highest bid of each lot after its bids
// changed. Each key is dropped under its lot lock, so a refill that read the
// old rows has already landed and is removed with it.
func (s *Service) dropCached(ctx context.Context, refs ...model.LotRef) {
	if s.cache == nil {
		return
	}
	for _, r := range refs {
		unlock := s.locks.lock(r.AuctionID, r.LotID)
		if err := s.cache.Invalidate(ctx, r.AuctionID, r.LotID); err != nil {
			slog.Warn("invalidating highest bid cache failed", "auction", r.AuctionID, "lot", r.LotID, "error", err)
		}
		unlock()
	}
}

// HighestBid returns the current highest bid on a lot, or nil when it has none.
func (s *Service) HighestBid(ctx context.Context, auctionID, lotID string) (*model.Bid, error) {
	if s.cache == nil {
		return store.HighestBid(ctx, s.db, auctionID, lotID)
	}

	b, ok, err := s.cache.Get(ctx, auctionID, lotID)
	if err != nil {
		slog.Warn("reading highest bid cache failed", "auction", auctionID, "lot", lotID, "error", err)
	} else if ok {
		return b, nil
	}

	// Refills read and write under the lot lock so they never land after a
	// newer bid or an invalidation.
	unlock := s.locks.lock(auctionID, lotID)
	defer unlock()

	b, err = store.HighestBid(ctx, s.db, auctionID, lotID)
	if err != nil {
		return nil, err
	}
	if b != nil {
		s.refreshCache(ctx, b)
	}
	return b, nil
}

// MyBids returns the user's latest bid per lot with its winning or outbid status.
func (s *Service) MyBids(ctx context.Context, userID int64) ([]model.MyBid, error) {
	bids, err := store.MyBids(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if bids == nil {
		bids = []model.MyBid{}
	}
	return bids, nil
}

// LotBidHistory returns bids on a lot, newest first.
func (s *Service) LotBidHistory(ctx context.Context, auctionID, lotID string, limit int) ([]model.Bid, error) {
	bids, err := store.LotBidHistory(ctx, s.db, auctionID, lotID, limit)
	if err != nil {
		return nil, err
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	return bids, nil
}

// FixBidAmount corrects a bid's amount outside the bidding rules.
func (s *Service) FixBidAmount(ctx context.Context, id, amount int64) (*model.Bid, error) {
	b, err := store.UpdateBidAmount(ctx, s.db, id, amount)
	if err != nil {
		return nil, err
	}
	s.dropCached(context.WithoutCancel(ctx), model.LotRef{AuctionID: b.AuctionID, LotID: b.LotID})
	slog.Info("bid amount corrected", "bid", id, "amount", amount)
	return b, nil
}

// DeleteBid removes a bid from the ledger.
func (s *Service) DeleteBid(ctx context.Context, id int64) error {
	b, err := store.GetBid(ctx, s.db, id)
	if err != nil {
		return err
	}
	if b == nil {
		return &store.NotFoundError{Entity: "bid", IDs: []string{fmt.Sprint(id)}}
	}
	if err := store.DeleteBid(ctx, s.db, id); err != nil {
		return err
	}
	s.dropCached(context.WithoutCancel(ctx), model.LotRef{AuctionID: b.AuctionID, LotID: b.LotID})
	slog.Info("bid deleted", "bid", id, "auction", b.AuctionID, "lot", b.LotID)
	return nil
}

// DeleteAuction removes an auction. Its bids go with it, so the cached
// highest bid of every lot bid on in the auction is dropped.
func (s *Service) DeleteAuction(ctx context.Context, id string) error {
	refs, err := s.deleteWithBids(ctx, func(tx *db.Tx) ([]model.LotRef, error) {
		refs, err := store.BidLots(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return refs, store.DeleteAuction(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.dropCached(context.WithoutCancel(ctx), refs...)
	return nil
}

// DeleteLot removes a lot and its bids in every auction, dropping their
// cached highest bids.
func (s *Service) DeleteLot(ctx context.Context, id string) error {
	refs, err := s.deleteWithBids(ctx, func(tx *db.Tx) ([]model.LotRef, error) {
		refs, err := store.LotBidAuctions(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return refs, store.DeleteLot(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.dropCached(context.WithoutCancel(ctx), refs...)
	return nil
}

// deleteWithBids runs a cascading delete in one transaction. fn reports the
// lots whose bids the delete removes, read in the same transaction.
func (s *Service) deleteWithBids(ctx context.Context, fn func(tx *db.Tx) ([]model.LotRef, error)) ([]model.LotRef, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	refs, err := fn(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}
	return refs, nil
}
