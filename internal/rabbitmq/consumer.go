package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	"dwhreports/config"
	"dwhreports/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

var log = logger.New("rabbitmq")

// ErrDiscard marks a message that can never succeed. It is rejected without
// requeue instead of being redelivered.
var ErrDiscard = errors.New("discard message")

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
}

func NewConsumer(cfg config.RabbitMQConfig) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Set prefetch count
	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
	}, nil
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// ConsumeQueue delivers every message of queueName to handler until ctx is
// done or the channel closes.
func (c *Consumer) ConsumeQueue(ctx context.Context, queueName string, handler func(context.Context, amqp.Delivery) error) error {
	if err := declareQueue(c.channel, queueName); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Infof("✓ Started consuming from queue: %s", queueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			settle(msg, handler(ctx, msg))
		}
	}
}

func settle(msg amqp.Delivery, err error) {
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, ErrDiscard):
		log.Warningf("✗ Discarding message %s: %v", msg.MessageId, err)
		msg.Nack(false, false)
	default:
		log.Errorf("✗ Error processing message %s: %v", msg.MessageId, err)
		// Reject and requeue
		msg.Nack(false, true)
	}
}

func declareQueue(ch *amqp.Channel, queueName string) error {
	// Declare queue (idempotent)
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return nil
}
