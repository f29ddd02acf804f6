package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventsocials/internal/domain"
)

// Consumer dequeues notification messages one at a time and applies the
// acknowledgment discipline: ack on successful delivery, nack-with-requeue on
// transient failure, dead-letter on messages that can never be processed.
// Prefetch is pinned to 1 so at most one message is in flight per consumer.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewConsumer connects to the broker, declares the queue topology, and limits
// the channel to one unacknowledged delivery.
func NewConsumer(url, queueName string, logger *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queueName, logger: logger}, nil
}

// Run consumes deliveries until the context is canceled or the channel
// closes. Each delivery is handled synchronously.
func (c *Consumer) Run(ctx context.Context, handler domain.NotificationHandler) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming notifications", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.process(ctx, d, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery, handler domain.NotificationHandler) {
	var msg domain.NotificationMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		// Requeueing a message that can never be parsed would loop forever;
		// route it to the dead-letter queue.
		c.logger.Warn("dead-lettering malformed notification", "err", err)
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("nack failed", "err", err)
		}
		return
	}

	if err := handler.Handle(ctx, &msg); err != nil {
		if errors.Is(err, domain.ErrUnprocessableMessage) {
			c.logger.Warn("dead-lettering unprocessable notification", "type", msg.Type, "err", err)
			if err := d.Nack(false, false); err != nil {
				c.logger.Error("nack failed", "err", err)
			}
			return
		}
		c.logger.Error("notification delivery failed, requeueing", "type", msg.Type, "recipient", msg.Recipient, "err", err)
		if err := d.Nack(false, true); err != nil {
			c.logger.Error("nack failed", "err", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("ack failed", "err", err)
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if err := c.ch.Close(); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}
