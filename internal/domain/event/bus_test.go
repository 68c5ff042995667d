package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecorder struct {
	events  []Event
	cleared bool
}

func (r *stubRecorder) Events() []Event { return r.events }
func (r *stubRecorder) ClearEvents() {
	r.events = nil
	r.cleared = true
}

type stubPublisher struct {
	published []Event
	failAt    int // 1-based publish call that fails; 0 means never
	calls     int
}

func (p *stubPublisher) Publish(_ context.Context, e Event) error {
	p.calls++
	if p.failAt > 0 && p.calls == p.failAt {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, e)
	return nil
}

func TestNewEventDefaults(t *testing.T) {
	id := uuid.New()
	e := New("UserCreatedEvent", id, nil)

	assert.Equal(t, "UserCreatedEvent", e.Type)
	assert.Equal(t, id, e.AggregateID)
	assert.NotNil(t, e.Data)
	assert.False(t, e.OccurredAt.IsZero())
	assert.Equal(t, 1, e.Version)
}

func TestDrainPublishesInOrderAndClears(t *testing.T) {
	id := uuid.New()
	rec := &stubRecorder{events: []Event{
		New("UserCreatedEvent", id, nil),
		New("UserChangedEmailEvent", id, nil),
		New("UserBlockedEvent", id, nil),
	}}
	pub := &stubPublisher{}

	require.NoError(t, Drain(context.Background(), pub, rec))

	require.Len(t, pub.published, 3)
	assert.Equal(t, "UserCreatedEvent", pub.published[0].Type)
	assert.Equal(t, "UserChangedEmailEvent", pub.published[1].Type)
	assert.Equal(t, "UserBlockedEvent", pub.published[2].Type)
	assert.True(t, rec.cleared)
}

func TestDrainPartialFailureKeepsLog(t *testing.T) {
	id := uuid.New()
	rec := &stubRecorder{events: []Event{
		New("UserChangedPhoneEvent", id, nil),
		New("UserChangedBioEvent", id, nil),
	}}
	pub := &stubPublisher{failAt: 2}

	err := Drain(context.Background(), pub, rec)

	require.Error(t, err)
	assert.Len(t, pub.published, 1, "first event went out before the failure")
	assert.False(t, rec.cleared, "log stays intact for retry")
	assert.Len(t, rec.events, 2)
}

func TestDrainEmptyLog(t *testing.T) {
	rec := &stubRecorder{}
	pub := &stubPublisher{}

	require.NoError(t, Drain(context.Background(), pub, rec))
	assert.Empty(t, pub.published)
	assert.True(t, rec.cleared)
}
