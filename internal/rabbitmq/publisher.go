package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"dwhreports/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends messages through the default exchange, so the routing key
// is the destination queue name.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool
}

func NewPublisher(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends msg to routingKey. Durable queues are declared on first use;
// reply queues named by clients are expected to exist already.
func (p *Publisher) Publish(ctx context.Context, routingKey string, durable bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if durable && !p.declared[routingKey] {
		if err := declareQueue(p.channel, routingKey); err != nil {
			return err
		}
		p.declared[routingKey] = true
	}

	if err := p.channel.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
