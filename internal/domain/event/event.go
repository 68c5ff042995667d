package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a state change on an aggregate. It is owned
// by the aggregate until drained by the bus and is never mutated after creation.
type Event struct {
	Type        string         `json:"event_type"`
	AggregateID uuid.UUID      `json:"aggregate_id"`
	Data        map[string]any `json:"data"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Version     int            `json:"version"`
}

// New builds an event with the current timestamp and schema version 1.
func New(eventType string, aggregateID uuid.UUID, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		Data:        data,
		OccurredAt:  time.Now().UTC(),
		Version:     1,
	}
}
