package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/farmhand/internal/config"
)

// ErrNotConnected is returned when publishing or consuming on a closed client
var ErrNotConnected = errors.New("not connected to RabbitMQ")

// Client owns one connection and channel bound to the configured exchange and queue
type Client struct {
	cfg     config.RabbitMQConfig
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger

	mu        sync.Mutex
	connected bool
}

// NewClient dials RabbitMQ with retries and declares the topology
func NewClient(cfg config.RabbitMQConfig, logger *slog.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: logger}

	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ client: %w", err)
	}

	return c, nil
}

func (c *Client) dsn() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.cfg.User, c.cfg.Password),
		Host:   fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port),
		Path:   c.cfg.VHost,
	}
	return u.String()
}

func (c *Client) connect() error {
	attempts := c.cfg.Connection.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	amqpConfig := amqp.Config{
		Heartbeat: c.cfg.Connection.Heartbeat,
		Locale:    "en_US",
	}
	if c.cfg.Connection.ConnectionTimeout > 0 {
		amqpConfig.Dial = amqp.DefaultDial(c.cfg.Connection.ConnectionTimeout)
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		c.conn, err = amqp.DialConfig(c.dsn(), amqpConfig)
		if err == nil {
			break
		}

		c.logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(c.cfg.Connection.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := c.declare(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("failed to setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.logger.Info("RabbitMQ client initialized",
		slog.String("exchange", c.cfg.Exchange.Name),
		slog.String("queue", c.cfg.Queue.Name),
		slog.String("routing_key", c.cfg.RoutingKey),
	)

	return nil
}

func (c *Client) declare() error {
	exchangeType := c.cfg.Exchange.Type
	if exchangeType == "" {
		exchangeType = amqp.ExchangeDirect
	}

	err := c.channel.ExchangeDeclare(
		c.cfg.Exchange.Name,
		exchangeType,
		c.cfg.Exchange.Durable,
		c.cfg.Exchange.AutoDelete,
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.cfg.Queue.Name,
		c.cfg.Queue.Durable,
		c.cfg.Queue.AutoDelete,
		c.cfg.Queue.Exclusive,
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.cfg.Queue.Name, c.cfg.RoutingKey, c.cfg.Exchange.Name, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON marshals v and publishes it as a persistent message,
// retrying with exponential backoff.
func (c *Client) PublishJSON(ctx context.Context, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if !c.isConnected() {
		return ErrNotConnected
	}

	retries := c.cfg.Publish.RetryAttempts
	if retries < 0 {
		retries = 0
	}
	delay := c.cfg.Publish.RetryInterval
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	mult := c.cfg.Publish.BackoffMultiplier
	if mult < 1 {
		mult = 2.0
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = c.channel.PublishWithContext(ctx, c.cfg.Exchange.Name, c.cfg.RoutingKey, false, false, msg)
		if lastErr == nil {
			c.logger.Debug("Message published to RabbitMQ",
				slog.String("message_id", messageID),
				slog.Int("attempt", attempt+1),
			)
			return nil
		}

		if attempt == retries {
			break
		}

		c.logger.Warn("Failed to publish message to RabbitMQ, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_after", delay),
			slog.Any("error", lastErr),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to publish message: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * mult)
	}

	return fmt.Errorf("failed to publish message after %d attempts: %w", retries+1, lastErr)
}

// Consume starts a manual-ack consumer on the configured queue
func (c *Client) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	if !c.isConnected() {
		return nil, ErrNotConnected
	}

	if prefetch := c.cfg.Consumer.PrefetchCount; prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	deliveries, err := c.channel.Consume(
		c.cfg.Queue.Name,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	c.logger.Info("Started consuming messages from RabbitMQ",
		slog.String("queue", c.cfg.Queue.Name),
		slog.String("consumer_tag", consumerTag),
	)

	return deliveries, nil
}

// Close closes the channel and connection
func (c *Client) Close() error {
	c.logger.Info("Closing RabbitMQ connection")

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ channel",
				slog.Any("error", err),
			)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}

	return nil
}
