package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DanielTrujilloS/DafaMedicSistema/config"
	"github.com/DanielTrujilloS/DafaMedicSistema/events"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

// Orders at or above this total jump the queue.
const largeOrderCents = 100000

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.Cfg.DeadLetterQueue + "_exchange"
}

func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.DeadLetterQueue,
		r.Cfg.DeadLetterQueue,
		r.deadLetterExchange(),
		false,
		nil,
	); err != nil {
		return err
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}

	return r.Channel.QueueBind(
		r.Cfg.OrderQueue,
		"",
		r.Cfg.OrderExchange,
		false,
		nil,
	)
}

// EventPriority ranks deliveries on the priority queue.
func EventPriority(evt models.OrderEvent) uint8 {
	switch {
	case evt.Status == models.StatusCanceled:
		return 8
	case evt.TotalCents >= largeOrderCents:
		return 9
	default:
		return 5
	}
}

func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error {
	body, err := events.Encode(evt)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    evt.OrderID + ":" + evt.Type,
		Type:         evt.Type,
		Body:         body,
		Priority:     EventPriority(evt),
	}

	return r.Channel.PublishWithContext(ctx,
		r.Cfg.OrderExchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}

var _ events.Publisher = (*RabbitMQ)(nil)
