// Package notify delivers user notifications: every note is appended to the
// recipient's inbox and then relayed to any configured publishers. Delivery
// is best-effort; failures are logged and never reach the caller.
package notify

import (
	"context"
	"log/slog"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Publisher relays a stored notification to an external system.
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

// Dispatcher stores notifications and fans them out to publishers.
type Dispatcher struct {
	q          db.Querier
	publishers []Publisher
}

// NewDispatcher returns a dispatcher that writes to q.
func NewDispatcher(q db.Querier, publishers ...Publisher) *Dispatcher {
	return &Dispatcher{q: q, publishers: publishers}
}

// Dispatch delivers each note in order and returns how many were stored.
func (d *Dispatcher) Dispatch(ctx context.Context, notes ...model.Notification) int {
	stored := 0
	for _, note := range notes {
		n, err := store.Notify(ctx, d.q, note)
		if err != nil {
			slog.Warn("storing notification failed",
				"user", note.UserID, "type", note.Type, "error", err)
			continue
		}
		stored++

		for _, p := range d.publishers {
			if err := p.Publish(ctx, n); err != nil {
				slog.Warn("relaying notification failed",
					"id", n.ID, "user", n.UserID, "type", n.Type, "error", err)
			}
		}
	}
	return stored
}
