package consumers

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DanielTrujilloS/DafaMedicSistema/config"
	"github.com/DanielTrujilloS/DafaMedicSistema/events"
	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

// Notifier sends the customer-facing confirmation for a new order.
type Notifier interface {
	NotifyCreated(ctx context.Context, orderID string) error
}

// OrderEventHandler returns the handler shared by the RabbitMQ and Kafka
// consumers.
func OrderEventHandler(n Notifier) events.Handler {
	return func(ctx context.Context, evt models.OrderEvent) error {
		slog.Info("Processing order event", "order_id", evt.OrderID, "type", evt.Type)

		switch evt.Type {
		case models.EventOrderCreated:
			if err := n.NotifyCreated(ctx, evt.OrderID); err != nil {
				middlewares.RecordOrderEvent(evt.Type, false)
				return fmt.Errorf("confirmation for %s: %w", evt.OrderID, err)
			}
		case models.EventOrderStatusUpdated:
			slog.Info("Order status changed", "order_id", evt.OrderID, "status", evt.Status)
		default:
			slog.Warn("Unknown event type", "type", evt.Type)
		}
		middlewares.RecordOrderEvent(evt.Type, true)
		return nil
	}
}

func StartOrderConsumer(ctx context.Context, ch *amqp.Channel, cfg *config.Config, handler events.Handler) error {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"storefront",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				processOrderMessage(ctx, msg, handler)
			}
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-dlq",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		slog.Error("Failed to register DLQ consumer", "err", err)
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-dlqMsgs:
				if !ok {
					return
				}
				processDeadLetterMessage(msg)
			}
		}
	}()
	return nil
}

// processOrderMessage acks on success. Anything else is nacked without
// requeue so the broker routes it to the dead-letter queue.
func processOrderMessage(ctx context.Context, msg amqp.Delivery, handler events.Handler) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic in message processing", "panic", r)
			_ = msg.Nack(false, false)
		}
	}()

	evt, err := events.Decode(msg.Body)
	if err != nil {
		slog.Error("Invalid message format", "body", string(msg.Body), "err", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := handler(ctx, evt); err != nil {
		slog.Error("Order event failed", "order_id", evt.OrderID, "type", evt.Type, "err", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "order_id", evt.OrderID, "err", err)
	}
}

func processDeadLetterMessage(msg amqp.Delivery) {
	slog.Warn("Received dead letter", "body", string(msg.Body), "type", msg.Type)
	middlewares.RecordOrderEvent("dead_letter", false)
	_ = msg.Ack(false)
}
