package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roadcall/dispatch/internal/contracts"
	"github.com/roadcall/dispatch/internal/models"
)

// Dispatcher is the slice of the dispatch service the consumer needs.
type Dispatcher interface {
	DispatchAll(ctx context.Context, request models.ServiceRequest) ([]models.DispatchSummary, error)
}

// Consumer reads insert events from an AMQP queue and runs the same dispatch
// orchestration as the HTTP webhook. Deployments that route database events
// through a broker instead of webhooks use this entry point.
type Consumer struct {
	url        string
	queue      string
	dispatcher Dispatcher
	log        *slog.Logger
}

// handleTimeout bounds one event's dispatch cycle, including all fan-out sends.
const handleTimeout = 30 * time.Second

// NewConsumer creates an AMQP consumer for the given queue.
func NewConsumer(url, queue string, dispatcher Dispatcher, log *slog.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, dispatcher: dispatcher, log: log}
}

// Run connects, declares the queue and consumes with manual acks until the
// context is canceled or the channel closes. Poison messages (undecodable
// payloads) are nacked without requeue; dispatch failures are requeued once
// by the broker's redelivery flag.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("amqp: dial %s: %w", c.url, err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: open channel: %w", err)
	}
	defer channel.Close()

	const prefetch = 10
	if err = channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("amqp: set QoS: %w", err)
	}

	if _, err = channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp: declare queue %s: %w", c.queue, err)
	}

	deliveries, err := channel.Consume(
		c.queue,
		"dispatch-consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("amqp: consume %s: %w", c.queue, err)
	}

	chClosed := channel.NotifyClose(make(chan *amqp.Error, 1))

	c.log.InfoContext(ctx, "AMQP consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.log.InfoContext(ctx, "AMQP consumer stopped")
			return nil

		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("amqp: channel closed while consuming %s: %w", c.queue, cerr)
			}
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, delivery)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	hCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	request, err := contracts.ParseInsertEvent(delivery.Body)
	if err != nil {
		if errors.Is(err, contracts.ErrIgnoredEvent) {
			_ = delivery.Ack(false)
			return
		}
		// Undecodable or coordinate-less events will never succeed; drop them.
		c.log.ErrorContext(hCtx, "Dropping unprocessable event", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	summaries, err := c.dispatcher.DispatchAll(hCtx, *request)
	if err != nil {
		c.log.ErrorContext(hCtx, "Dispatch failed", "request", request.ID, "error", err)
		_ = delivery.Nack(false, !delivery.Redelivered)
		return
	}

	for _, summary := range summaries {
		c.log.InfoContext(hCtx, "Dispatch cycle finished",
			"request", request.ID, "channel", summary.Channel,
			"notified", summary.Notified, "eligible", summary.Eligible)
	}
	_ = delivery.Ack(false)
}
