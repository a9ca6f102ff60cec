package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/healthsync/healthsync-api/pkg/messaging"
)

const ExchangeType = "topic"

type Config struct {
	URL      string
	Exchange string
}

// Publisher handles publishing events to RabbitMQ
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zerolog.Logger
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange.
func NewPublisher(cfg Config, logger *zerolog.Logger) (messaging.Broker, error) {
	logger.Info().Str("url", maskPassword(cfg.URL)).Msg("connecting to RabbitMQ")

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Publish uses the channel argument as routing key, e.g. "booking.created".
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msgID := fmt.Sprintf("%d", time.Now().UnixNano())
	if ev, ok := message.(messaging.Event); ok {
		msgID = ev.ID
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    msgID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", routingKey, err)
	}

	p.logger.Debug().Str("routing_key", routingKey).Msg("event published")
	return nil
}

// Close closes the RabbitMQ connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("error closing RabbitMQ channel")
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
