package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single delivery and must tolerate redelivery.
// Return nil => ACK; return error => NACK (requeue behavior is the Router's).
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}
