package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/retailops/ticketworker/internal/shared/config"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

// confirmSession is a broker session whose publishes wait for a confirm. *Client implements it.
type confirmSession interface {
	PublishConfirmed(ctx context.Context, queue string, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher sends persistent messages to a queue through the default exchange
// and returns only once the broker has confirmed them. The connection is opened
// lazily and re-opened after a failed publish.
type Publisher struct {
	connect func(ctx context.Context) (confirmSession, error)
	logger  *logger.Logger

	mu   sync.Mutex
	sess confirmSession
}

// NewPublisher creates a Publisher that declares the same topology as the consumer.
func NewPublisher(cfg *config.Config, logger *logger.Logger) *Publisher {
	addr := URL(cfg)
	topo := Topology{Queue: cfg.RabbitMQ.Queue, DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange}

	return &Publisher{
		connect: func(ctx context.Context) (confirmSession, error) {
			client, err := Connect(ctx, addr, topo, 0)
			if err != nil {
				return nil, err
			}
			if err := client.EnableConfirms(); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("enable publisher confirms: %w", err)
			}
			return client, nil
		},
		logger: logger,
	}
}

// Publish sends body to queue and waits for the broker confirm.
func (p *Publisher) Publish(ctx context.Context, queue string, body []byte, contentType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensure(ctx); err != nil {
		return err
	}

	err := p.sess.PublishConfirmed(ctx, queue, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  contentType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		// drop the session; the next publish reconnects
		_ = p.sess.Close()
		p.sess = nil
		return err
	}
	return nil
}

// Ping connects if needed and reports whether the broker is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensure(ctx)
}

// ensure opens a session when none is usable. Callers hold p.mu.
func (p *Publisher) ensure(ctx context.Context) error {
	if p.sess != nil && !p.sess.IsClosed() {
		return nil
	}

	sess, err := p.connect(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq: publisher connect: %w", err)
	}
	p.sess = sess
	p.logger.Info(ctx, "rabbitmq_connected", "Publisher connected to RabbitMQ", nil)
	return nil
}

// Close closes the underlying connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess != nil {
		_ = p.sess.Close()
		p.sess = nil
	}
}
