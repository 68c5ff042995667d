package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler runs one named task. The returned value is stored as the task's
// result; an error marks the task failed in the backend.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Worker consumes the task queue and dispatches to registered handlers.
type Worker struct {
	ch       *amqp.Channel
	queue    string
	backend  *ResultBackend
	handlers map[string]Handler
	log      *logrus.Logger
}

func NewWorker(conn *amqp.Connection, queue string, backend *ResultBackend, log *logrus.Logger) (*Worker, error) {
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
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Worker{ch: ch, queue: queue, backend: backend, handlers: map[string]Handler{}, log: log}, nil
}

func (w *Worker) Close() error {
	return w.ch.Close()
}

// Register binds a handler to a task name. Later registrations for the
// same name replace the earlier one.
func (w *Worker) Register(name string, h Handler) {
	w.handlers[name] = h
}

// Run consumes tasks until the context is canceled or the channel closes.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", w.queue, err)
	}
	w.log.WithField("queue", w.queue).Info("task worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var msg message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.log.WithError(err).Warn("dropping malformed task message")
		_ = d.Nack(false, false)
		return
	}
	log := w.log.WithFields(logrus.Fields{"task": msg.Name, "task_id": msg.TaskID})

	h, ok := w.handlers[msg.Name]
	if !ok {
		log.Warn("no handler registered for task")
		w.backend.SetError(ctx, msg.TaskID, fmt.Sprintf("unknown task %q", msg.Name))
		_ = d.Ack(false)
		return
	}

	result, err := h(ctx, msg.Payload)
	if err != nil {
		log.WithError(err).Error("task handler failed")
		w.backend.SetError(ctx, msg.TaskID, err.Error())
		_ = d.Ack(false)
		return
	}
	if err := w.backend.SetCompleted(ctx, msg.TaskID, result); err != nil {
		log.WithError(err).Error("storing task result failed")
		w.backend.SetError(ctx, msg.TaskID, err.Error())
	}
	_ = d.Ack(false)
	log.Debug("task completed")
}
