package bidding

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/notify"
	"github.com/erazemk/drazba/internal/store"
)

// FinalizeAuction resolves the winner of every lot in the auction and tells
// new or changed winners. It may run in any phase and any number of times;
// finalizing an auction that has not ended is logged.
func (s *Service) FinalizeAuction(ctx context.Context, auctionID string) ([]model.WinnerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "bidding.finalize_auction",
		trace.WithAttributes(attribute.String("auction.id", auctionID)))
	defer span.End()

	now := s.now()
	phase, err := s.AuctionPhase(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if phase != model.PhaseEnded {
		slog.Warn("finalizing auction before it ended", "auction", auctionID, "phase", phase)
	}

	result, err := store.FinalizeAuction(ctx, s.db, auctionID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalizing auction failed")
		return nil, err
	}

	notes := make([]model.Notification, 0, len(result.Changed))
	for _, w := range result.Changed {
		notes = append(notes, notify.Won(w.UserID, w.LotID, w.Amount))
	}
	if len(notes) > 0 {
		s.notifier.Dispatch(context.WithoutCancel(ctx), notes...)
	}

	s.winners.Add(ctx, int64(len(result.Changed)))
	span.SetAttributes(
		attribute.Int("winners.total", len(result.Winners)),
		attribute.Int("winners.changed", len(result.Changed)),
	)
	slog.Info("auction finalized", "auction", auctionID, "phase", phase,
		"winners", len(result.Winners), "changed", len(result.Changed))

	if result.Winners == nil {
		return []model.WinnerRecord{}, nil
	}
	return result.Winners, nil
}

// AuctionPhase returns the auction's lifecycle phase at the service clock.
func (s *Service) AuctionPhase(ctx context.Context, auctionID string) (string, error) {
	a, err := store.GetAuction(ctx, s.db, auctionID)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", &store.NotFoundError{Entity: "auction", IDs: []string{auctionID}}
	}
	st, err := store.GetAuctionState(ctx, s.db, auctionID)
	if err != nil {
		return "", err
	}
	return model.Phase(a, st, s.now()), nil
}

// Phase computes the phase of an already loaded auction at the service clock.
func (s *Service) Phase(a *model.Auction, st *model.AuctionState) string {
	return model.Phase(a, st, s.now())
}

// SaveAuction creates or updates an auction and, when lotIDs is not nil,
// replaces its lot set in the same transaction. Once a save that publishes
// the auction (Draft to Scheduled) has committed, every enabled bidder is
// told about it; a rejected save tells nobody.
func (s *Service) SaveAuction(ctx context.Context, a *model.Auction, lotIDs []string) (*model.Auction, error) {
	ctx, span := s.tracer.Start(ctx, "bidding.save_auction",
		trace.WithAttributes(attribute.String("auction.id", a.ID)))
	defer span.End()

	saved, published, err := store.SaveAuctionWithLots(ctx, s.db, a, lotIDs)
	if err != nil {
		return nil, err
	}
	if !published {
		return saved, nil
	}

	after := context.WithoutCancel(ctx)
	ids, err := store.ListEnabledBidderIDs(after, s.db)
	if err != nil {
		slog.Warn("listing bidders for auction announcement failed", "auction", saved.ID, "error", err)
		return saved, nil
	}
	notes := make([]model.Notification, len(ids))
	for i, id := range ids {
		notes[i] = notify.NewAuction(id, saved)
	}
	sent := s.notifier.Dispatch(after, notes...)
	span.SetAttributes(attribute.Int("announcements", sent))
	slog.Info("auction published", "auction", saved.ID, "announced", sent)
	return saved, nil
}
