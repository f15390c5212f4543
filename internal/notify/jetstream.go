package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/erazemk/drazba/internal/model"
)

// Stream settings for the notification relay.
const (
	StreamName    = "DRAZBA_NOTIFICATIONS"
	SubjectPrefix = "drazba.notifications"
	streamMaxAge  = 7 * 24 * time.Hour
	publishWait   = 5 * time.Second
)

// Event is the message published for every stored notification.
type Event struct {
	EventID      string             `json:"event_id"`
	Notification model.Notification `json:"notification"`
	PublishedAt  time.Time          `json:"published_at"`
}

// JetStreamPublisher relays notifications to a durable NATS JetStream stream.
// Subjects are SubjectPrefix followed by the notification type.
type JetStreamPublisher struct {
	js jetstream.JetStream
}

// NewJetStreamPublisher creates (or updates) the notification stream on nc.
func NewJetStreamPublisher(ctx context.Context, nc *nats.Conn) (*JetStreamPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "User notifications relayed after they are stored",
		Subjects:    []string{SubjectPrefix + ".*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamMaxAge,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating notification stream: %w", err)
	}

	return &JetStreamPublisher{js: js}, nil
}

// Subject returns the subject a notification of the given type is published on.
func Subject(notificationType string) string {
	return SubjectPrefix + "." + notificationType
}

// Publish sends n and waits for the stream to acknowledge it. The event ID
// doubles as the JetStream message ID, so a retried publish is deduplicated.
func (p *JetStreamPublisher) Publish(ctx context.Context, n *model.Notification) error {
	event := Event{
		EventID:      uuid.NewString(),
		Notification: *n,
		PublishedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding notification event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishWait)
	defer cancel()

	if _, err := p.js.Publish(ctx, Subject(n.Type), data, jetstream.WithMsgID(event.EventID)); err != nil {
		return fmt.Errorf("publishing notification %d: %w", n.ID, err)
	}
	return nil
}
