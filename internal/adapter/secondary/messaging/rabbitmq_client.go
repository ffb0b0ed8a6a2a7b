package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cashflow/payment-lifecycle/internal/port/output"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	ExchangeName  = "payments"
	QueueName     = "payment_processing"
	PrefetchCount = 1 // Process one message at a time per worker
)

// RabbitMQClient is a secondary adapter that implements PaymentMessaging output port
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQClient creates a new RabbitMQ client (returns interface for ports)
func NewRabbitMQClient(amqpURL string) (output.PaymentMessaging, error) {
	return NewRabbitMQClientConcrete(amqpURL)
}

// NewRabbitMQClientConcrete creates a new RabbitMQ client (returns concrete type for workers)
func NewRabbitMQClientConcrete(amqpURL string) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client := &RabbitMQClient{conn: conn, channel: channel}
	if err := client.declareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// declareTopology declares the lifecycle exchange and the processing queue
func (c *RabbitMQClient) declareTopology() error {
	err := c.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Only newly created payments need settling
	err = c.channel.QueueBind(
		QueueName,
		string(output.PaymentEventCreated),
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// PublishPaymentEvent publishes a lifecycle event routed by its type
func (c *RabbitMQClient) PublishPaymentEvent(ctx context.Context, event output.PaymentEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(
		ctx,
		ExchangeName,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // Make message persistent
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Int64("payment_id", event.PaymentID).
		Str("routing_key", string(event.Type)).
		Msg("published payment event")
	return nil
}

// ConsumePaymentEvents starts consuming payment events until ctx is done.
// A handler error requeues the message; undecodable messages are dropped.
func (c *RabbitMQClient) ConsumePaymentEvents(ctx context.Context, handler func(context.Context, output.PaymentEvent) error) error {
	err := c.channel.Qos(
		PrefetchCount,
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Str("queue", QueueName).Msg("started consuming payment events")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn().Msg("delivery channel closed")
					return
				}
				c.handleDelivery(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (c *RabbitMQClient) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, output.PaymentEvent) error) {
	logger := zerolog.Ctx(ctx)

	event, err := decodeEvent(msg.Body)
	if err != nil {
		logger.Error().Err(err).Msg("dropping malformed message")
		msg.Ack(false)
		return
	}

	if err := handler(ctx, event); err != nil {
		logger.Error().Err(err).Int64("payment_id", event.PaymentID).Msg("error handling payment event")
		msg.Nack(false, true) // Requeue for retry
		return
	}

	msg.Ack(false)
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func encodeEvent(event output.PaymentEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}

func decodeEvent(body []byte) (output.PaymentEvent, error) {
	var event output.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if event.Type == "" || event.PaymentID == 0 {
		return event, fmt.Errorf("message is missing type or payment_id")
	}
	return event, nil
}
