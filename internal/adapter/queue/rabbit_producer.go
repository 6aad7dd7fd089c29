package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

const (
	RKOrderCreated = "order.created"
	RKOrderPaid    = "order.paid"

	// PaidQueue is consumed in-process by the fulfillment handler.
	PaidQueue = "order.paid.q"

	createdQueue = "order.created.q"
)

// RabbitProducer implements usecase.EventPublisher over a topic exchange.
type RabbitProducer struct {
	ch       *amqp.Channel
	exchange string
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)

// NewRabbitProducer declares the exchange, queues and bindings once at startup.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	bindings := map[string]string{
		createdQueue: RKOrderCreated,
		PaidQueue:    RKOrderPaid,
	}
	for queue, rk := range bindings {
		q, err := ch.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch, exchange: exchange}, nil
}

func (p *RabbitProducer) PublishOrderCreated(ctx context.Context, msg usecase.OrderCreatedMsg) error {
	return p.publish(ctx, RKOrderCreated, msg)
}

func (p *RabbitProducer) PublishOrderPaid(ctx context.Context, msg usecase.OrderPaidMsg) error {
	return p.publish(ctx, RKOrderPaid, msg)
}

func (p *RabbitProducer) publish(ctx context.Context, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    uuid.NewString(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	return nil
}
