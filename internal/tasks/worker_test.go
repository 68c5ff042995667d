package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/infrastructure/cache"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}
func (a *fakeAck) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func testWorker() *Worker {
	log := logrus.New()
	log.SetOutput(io.Discard)
	backend := NewResultBackend(cache.NewRedisCache(cache.Config{}, log), 0)
	return &Worker{backend: backend, handlers: map[string]Handler{}, log: log}
}

func delivery(t *testing.T, taskID, name string, payload any) (amqp.Delivery, *fakeAck) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(message{TaskID: taskID, Name: name, Payload: raw})
	require.NoError(t, err)
	ack := &fakeAck{}
	return amqp.Delivery{Acknowledger: ack, Body: body}, ack
}

func TestWorkerDispatchesToRegisteredHandler(t *testing.T) {
	w := testWorker()
	var got string
	w.Register("users.change_bio", func(_ context.Context, payload json.RawMessage) (any, error) {
		var p struct {
			UserID string `json:"user_id"`
		}
		require.NoError(t, json.Unmarshal(payload, &p))
		got = p.UserID
		return map[string]any{"success": true}, nil
	})

	d, ack := delivery(t, "t-1", "users.change_bio", map[string]string{"user_id": "u-1"})
	w.handle(context.Background(), d)

	assert.Equal(t, "u-1", got)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestWorkerUnknownTaskIsAcked(t *testing.T) {
	w := testWorker()
	d, ack := delivery(t, "t-2", "users.no_such_task", map[string]string{})

	w.handle(context.Background(), d)

	assert.True(t, ack.acked, "an unroutable task is recorded as failed, not redelivered")
}

func TestWorkerHandlerErrorIsAcked(t *testing.T) {
	w := testWorker()
	w.Register("users.block", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	d, ack := delivery(t, "t-3", "users.block", map[string]string{})

	w.handle(context.Background(), d)

	assert.True(t, ack.acked, "the failure lands in the result backend, not back on the queue")
}

func TestWorkerMalformedMessageIsDiscarded(t *testing.T) {
	w := testWorker()
	ack := &fakeAck{}

	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued, "a malformed message can never succeed; do not requeue")
}

func TestWorkerRegisterReplacesHandler(t *testing.T) {
	w := testWorker()
	w.Register("users.activate", func(context.Context, json.RawMessage) (any, error) {
		t.Fatal("replaced handler must not run")
		return nil, nil
	})
	ran := false
	w.Register("users.activate", func(context.Context, json.RawMessage) (any, error) {
		ran = true
		return nil, nil
	})

	d, _ := delivery(t, "t-4", "users.activate", map[string]string{})
	w.handle(context.Background(), d)

	assert.True(t, ran)
}
