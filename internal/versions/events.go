package versions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle transition.
type EventType string

const (
	EventUploaded EventType = "version_uploaded"
	EventVerified EventType = "version_verified"
	EventRejected EventType = "version_rejected"
	EventDeleted  EventType = "version_deleted"
	EventRestored EventType = "version_restored"
)

// Event records a single version transition for timeline consumers.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"event_type"`
	VersionID uuid.UUID      `json:"version_id"`
	Slot      Slot           `json:"slot"`
	Actor     string         `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	From      string         `json:"from,omitempty"`
	To        string         `json:"to"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewEvent creates an event for v stamped at now.
func NewEvent(t EventType, v *Version, actor, from, to string, now time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		VersionID: v.ID,
		Slot:      v.Slot,
		Actor:     actor,
		Timestamp: now.UTC(),
		From:      from,
		To:        to,
		Metadata: map[string]any{
			"version_number": v.Number,
		},
	}
}

// EventSink receives events after the transition they describe is persisted.
type EventSink interface {
	Emit(ctx context.Context, e Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, e Event) error

func (f EventSinkFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// NopSink discards every event.
var NopSink EventSink = EventSinkFunc(func(context.Context, Event) error { return nil })
