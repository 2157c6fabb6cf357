package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/DanielTrujilloS/DafaMedicSistema/events"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkaGo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Broker publishes order events keyed by order id, so all events of one
// order land on the same partition in order. Events that cannot be handled
// go to the "<topic>.dlq" topic.
type Broker struct {
	brokers     []string
	topic       string
	writer      messageWriter
	deadLetters messageWriter
	newReader   func(groupID string) messageReader
	retryDelay  time.Duration
}

func NewBroker(brokers []string, topic string) *Broker {
	k := &Broker{
		brokers:    brokers,
		topic:      topic,
		retryDelay: time.Second,
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
		},
		deadLetters: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic + ".dlq",
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
	k.newReader = func(groupID string) messageReader {
		return kafkaGo.NewReader(kafkaGo.ReaderConfig{
			Brokers: k.brokers,
			Topic:   k.topic,
			GroupID: groupID,
		})
	}
	return k
}

func (k *Broker) PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error {
	payload, err := events.Encode(evt)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(evt.OrderID),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}); err != nil {
		return fmt.Errorf("failed to write order event: %w", err)
	}
	return nil
}

// Consume blocks until ctx is cancelled. Offsets are committed only once a
// message was handled or parked on the dead-letter topic.
func (k *Broker) Consume(ctx context.Context, groupID string, handler events.Handler) {
	reader := k.newReader(groupID)
	defer reader.Close()
	k.consume(ctx, reader, handler)
}

func (k *Broker) consume(ctx context.Context, reader messageReader, handler events.Handler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", k.topic)
				return
			}
			slog.Error("Error reading message", "topic", k.topic, "err", err)
			if !k.wait(ctx) {
				return
			}
			continue
		}

		if err := k.process(ctx, msg, handler); err != nil {
			// Left uncommitted; the group redelivers it after a restart.
			slog.Error("Failed to dead-letter message", "topic", k.topic, "offset", msg.Offset, "err", err)
			if !k.wait(ctx) {
				return
			}
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			slog.Error("Failed to commit offset", "topic", k.topic, "offset", msg.Offset, "err", err)
		}
	}
}

// process returns an error only when a failed message could not be moved to
// the dead-letter topic.
func (k *Broker) process(ctx context.Context, msg kafkaGo.Message, handler events.Handler) error {
	evt, err := events.Decode(msg.Value)
	if err != nil {
		slog.Error("Malformed order event", "topic", k.topic, "offset", msg.Offset, "err", err)
		return k.deadLetter(ctx, msg, err)
	}
	if err := handler(ctx, evt); err != nil {
		slog.Error("Error handling message", "topic", k.topic, "order_id", evt.OrderID, "err", err)
		return k.deadLetter(ctx, msg, err)
	}
	return nil
}

func (k *Broker) deadLetter(ctx context.Context, msg kafkaGo.Message, cause error) error {
	headers := append([]kafkaGo.Header{}, msg.Headers...)
	headers = append(headers, kafkaGo.Header{Key: "error", Value: []byte(cause.Error())})
	return k.deadLetters.WriteMessages(ctx, kafkaGo.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
}

func (k *Broker) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(k.retryDelay):
		return true
	}
}

func (k *Broker) Close() error {
	if err := k.deadLetters.Close(); err != nil {
		slog.Error("Failed to close dead-letter writer", "err", err)
	}
	return k.writer.Close()
}

var _ events.Publisher = (*Broker)(nil)
