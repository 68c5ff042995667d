package event

import "context"

// Handler consumes a delivered event. Returning an error prevents
// acknowledgement, so the message is redelivered (at-least-once).
type Handler func(ctx context.Context, e Event) error

// Recorder is the slice of an aggregate the bus needs: its pending events.
type Recorder interface {
	Events() []Event
	ClearEvents()
}

// Bus delivers recorded domain events to subscribers.
type Bus interface {
	// Publish sends one event to its subject. Failures propagate to the
	// caller; a lost event is a correctness issue downstream.
	Publish(ctx context.Context, e Event) error
	// Subscribe registers a handler for a named event type.
	Subscribe(eventType string, h Handler) error
	// ProcessEvents drains the aggregate's events in recorded order,
	// publishing each, then clears the log. If a publish fails partway,
	// already-published events stay published and the log is left intact
	// so the caller can retry.
	ProcessEvents(ctx context.Context, rec Recorder) error
}

// Publisher is the sending half of a Bus.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Drain publishes the recorder's events in order and clears the log only
// when every publish succeeded. On a partial failure the log keeps all
// events, including those already published, so a retry re-sends them;
// consumers are expected to tolerate duplicates.
func Drain(ctx context.Context, pub Publisher, rec Recorder) error {
	for _, e := range rec.Events() {
		if err := pub.Publish(ctx, e); err != nil {
			return err
		}
	}
	rec.ClearEvents()
	return nil
}
