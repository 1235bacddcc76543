package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hrflow/hrflow-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// maxDeliveries bounds redelivery before a message is dead lettered.
const maxDeliveries = 3

// MessageHandler processes one event. A returned error makes the message be retried once
// and then dead lettered.
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer dispatches the events of one queue to handlers registered by event type.
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	logger    *logger.Logger
}

// NewConsumer declares queueName with dead lettering and returns a consumer for it.
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return newConsumer(rmq, queueName, log), nil
}

func newConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) *Consumer {
	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    log.WithComponent("consumer"),
	}
}

// Subscribe binds the queue to exchange for routing keys matching pattern.
func (c *Consumer) Subscribe(exchange, pattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, pattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", pattern).
		Msg("subscribed to exchange")
	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start consumes the queue until ctx is cancelled or the channel closes. Messages are
// processed one at a time. It is safe to call again after a reconnect.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.rmq.Channel().Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", c.queueName, err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-deliveries:
				if !ok {
					c.logger.Warn().Str("queue", c.queueName).Msg("delivery channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.MessageId).Msg("undecodable message, dead lettering")
		msg.Reject(false)
		return
	}

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().Str("event_type", event.Type).Msg("no handler registered for event type")
		msg.Ack(false)
		return
	}

	c.settle(msg, &event, handler(WithCorrelationID(ctx, event.CorrelationID), &event))
}

// settle acks a handled message, requeues a first failure and dead letters a repeated one.
func (c *Consumer) settle(msg amqp.Delivery, event *Event, err error) {
	if err == nil {
		msg.Ack(false)
		return
	}

	log := c.logger.Error().Err(err).Str("event_type", event.Type).Str("event_id", event.ID)
	if msg.Redelivered || deliveryCount(msg) >= maxDeliveries {
		log.Msg("failed to process event, dead lettering")
		msg.Reject(false)
		return
	}
	log.Msg("failed to process event, requeueing")
	msg.Nack(false, true)
}

// deliveryCount reads the broker's x-death bookkeeping.
func deliveryCount(msg amqp.Delivery) int {
	deaths, ok := msg.Headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	for _, death := range deaths {
		if d, ok := death.(amqp.Table); ok {
			if count, ok := d["count"].(int64); ok {
				return int(count)
			}
		}
	}
	return 0
}
