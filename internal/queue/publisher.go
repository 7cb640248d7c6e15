package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/service"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
)

// Publisher delivers waitlist notifications to RabbitMQ. Publishing is best
// effort; a broken channel is reopened on the next call.
type Publisher struct {
	url    string
	queue  string
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares the notification queue.
func NewPublisher(cfg config.NotifierConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{url: cfg.AMQPURL, queue: cfg.QueueName, logger: logger}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("connect notifier broker: %w", err)
	}
	return p, nil
}

var _ service.Notifier = (*Publisher)(nil)

// Notify publishes one notification as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, n service.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.channel.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("reconnect notifier broker: %w", err)
		}
	}
	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         n.Event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	p.logger.Debug("notification published",
		zap.String("event", n.Event),
		zap.String("reservation_id", n.ReservationID))
	return nil
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func (p *Publisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked()
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if _, err := channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return err
	}
	p.conn = conn
	p.channel = channel
	return nil
}
