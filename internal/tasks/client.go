package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrWaitTimeout means the caller gave up waiting; the task itself keeps
// running and its result stays retrievable from the backend.
var ErrWaitTimeout = errors.New("timed out waiting for task result")

const pollInterval = 100 * time.Millisecond

// Client submits named tasks to the worker queue.
type Client struct {
	ch      *amqp.Channel
	queue   string
	backend *ResultBackend
	log     *logrus.Logger
}

func NewClient(conn *amqp.Connection, queue string, backend *ResultBackend, log *logrus.Logger) (*Client, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Client{ch: ch, queue: queue, backend: backend, log: log}, nil
}

func (c *Client) Close() error {
	return c.ch.Close()
}

// Submit enqueues one task and returns its id. The task is marked pending
// in the backend before publication so a fast poll never sees a gap.
func (c *Client) Submit(ctx context.Context, name string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", name, err)
	}
	taskID := uuid.NewString()
	body, err := json.Marshal(message{TaskID: taskID, Name: name, Payload: raw})
	if err != nil {
		return "", err
	}

	c.backend.SetPending(ctx, taskID)
	err = c.ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    taskID,
		Type:         name,
		Body:         body,
	})
	if err != nil {
		return "", fmt.Errorf("publish task %s: %w", name, err)
	}
	c.log.WithFields(logrus.Fields{"task": name, "task_id": taskID}).Debug("task submitted")
	return taskID, nil
}

// WaitResult polls the backend until the task leaves the pending state or
// the timeout elapses. On timeout the last observed state is returned
// alongside ErrWaitTimeout.
func (c *Client) WaitResult(ctx context.Context, taskID string, timeout time.Duration) (State, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	var last State
	for {
		if st, ok := c.backend.Get(ctx, taskID); ok {
			last = st
			if st.Status != StatusPending {
				return st, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			return last, ErrWaitTimeout
		case <-tick.C:
		}
	}
}
