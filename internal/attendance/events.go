package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

// EventKind labels the write that produced an attendance event.
type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
	EventImport   EventKind = "import"
)

// Event is published after every successful attendance write so the summary
// watcher can recompute averages.
type Event struct {
	Kind       EventKind `json:"kind"`
	UserID     uuid.UUID `json:"user_id"`
	RecordID   uuid.UUID `json:"record_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher abstracts the attendance event sink.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops events; used when Pub/Sub is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// PubSubPublisher sends events to the attendance topic.
type PubSubPublisher struct {
	publisher *pubsub.Publisher
}

func NewPubSubPublisher(publisher *pubsub.Publisher) *PubSubPublisher {
	return &PubSubPublisher{publisher: publisher}
}

func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode attendance event: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":    string(event.Kind),
			"user_id": event.UserID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish attendance event: %w", err)
	}
	return nil
}
