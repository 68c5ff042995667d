package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/event"
)

// DefaultExchange is the topic exchange carrying user domain events. One
// routing key per event type: "users.events.<EventTypeName>".
const DefaultExchange = "users.events"

// RabbitEventBus publishes domain events to a RabbitMQ topic exchange and
// delivers them to subscribed handlers at least once: a message is acked only
// after every handler for it succeeded, so a handler error causes redelivery.
type RabbitEventBus struct {
	ch       *amqp.Channel
	exchange string
	log      *logrus.Logger

	mu       sync.Mutex
	handlers map[string][]event.Handler
}

// NewRabbitEventBus opens its own channel on the shared connection and
// declares the topic exchange.
func NewRabbitEventBus(conn *amqp.Connection, exchange string, log *logrus.Logger) (*RabbitEventBus, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitEventBus{
		ch:       ch,
		exchange: exchange,
		log:      log,
		handlers: make(map[string][]event.Handler),
	}, nil
}

// Close shuts the channel; the underlying connection stays open for its owner.
func (b *RabbitEventBus) Close() error {
	return b.ch.Close()
}

func (b *RabbitEventBus) subject(eventType string) string {
	return b.exchange + "." + eventType
}

// Publish sends one event to its subject. Errors propagate to the caller: a
// lost event is a correctness issue for downstream consumers, never swallowed.
func (b *RabbitEventBus) Publish(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	err = b.ch.PublishWithContext(ctx,
		b.exchange,
		b.subject(e.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         e.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", e.Type, err)
	}
	b.log.WithFields(logrus.Fields{"event_type": e.Type, "aggregate_id": e.AggregateID}).
		Debug("event published")
	return nil
}

// Subscribe registers a handler for a named event type. The first handler
// for a type declares a durable queue bound to the type's subject and starts
// the consume loop; later handlers for the same type share that queue.
func (b *RabbitEventBus) Subscribe(eventType string, h event.Handler) error {
	subj := b.subject(eventType)

	b.mu.Lock()
	first := len(b.handlers[subj]) == 0
	b.handlers[subj] = append(b.handlers[subj], h)
	b.mu.Unlock()

	if !first {
		return nil
	}

	queue := eventType + "-consumer"
	if _, err := b.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := b.ch.QueueBind(queue, subj, b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}
	msgs, err := b.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", queue, err)
	}

	go b.consume(subj, msgs)
	return nil
}

func (b *RabbitEventBus) consume(subject string, msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		var e event.Event
		if err := json.Unmarshal(msg.Body, &e); err != nil {
			b.log.WithError(err).WithField("subject", subject).Error("bad event message")
			_ = msg.Nack(false, false)
			continue
		}

		b.mu.Lock()
		hs := make([]event.Handler, len(b.handlers[subject]))
		copy(hs, b.handlers[subject])
		b.mu.Unlock()

		if err := runHandlers(hs, e); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"subject":      subject,
				"aggregate_id": e.AggregateID,
			}).Error("event handler failed, requeueing")
			_ = msg.Nack(false, true)
			continue
		}
		_ = msg.Ack(false)
	}
}

func runHandlers(hs []event.Handler, e event.Event) error {
	ctx := context.Background()
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// ProcessEvents drains the aggregate's events in recorded order and clears
// the log afterwards. If a publish fails partway, events published so far
// stay published and the log is left intact; the caller sees the failure even
// though the store mutation already committed.
func (b *RabbitEventBus) ProcessEvents(ctx context.Context, rec event.Recorder) error {
	return event.Drain(ctx, b, rec)
}

var _ event.Bus = (*RabbitEventBus)(nil)
