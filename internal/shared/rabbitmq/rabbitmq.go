package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/retailops/ticketworker/internal/shared/config"
)

// Session is one live broker connection with a consuming channel. It is owned
// by a single Consumer and replaced wholesale after any fault.
type Session interface {
	Consume(queue, consumer string) (<-chan amqp.Delivery, error)
	// NotifyClose yields once when the connection or the channel goes away.
	NotifyClose() <-chan *amqp.Error
	Close() error
}

// DialFunc opens a new Session.
type DialFunc func(ctx context.Context) (Session, error)

// Topology names the queue to consume and its optional dead-letter exchange.
type Topology struct {
	Queue              string
	DeadLetterExchange string
}

// Client is a connection plus one channel with QoS applied and topology declared.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// URL builds the AMQP URL from config.
func URL(cfg *config.Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.RabbitMQ.User, cfg.RabbitMQ.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
		Path:   "/" + trimVHost(cfg.RabbitMQ.VHost),
	}
	return u.String()
}

// the default vhost "/" is addressed as an empty path segment
func trimVHost(v string) string {
	if v == "/" {
		return ""
	}
	return v
}

// Dialer returns a DialFunc connecting with the configured credentials, prefetch and topology.
func Dialer(cfg *config.Config) DialFunc {
	addr := URL(cfg)
	topo := Topology{Queue: cfg.RabbitMQ.Queue, DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange}
	prefetch := cfg.RabbitMQ.Prefetch

	return func(ctx context.Context) (Session, error) {
		return Connect(ctx, addr, topo, prefetch)
	}
}

// Connect dials the broker, opens a channel, applies prefetch and declares topology.
func Connect(ctx context.Context, addr string, topo Topology, prefetch int) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// use DialConfig to set heartbeat and TCP dial timeout
	conn, err := amqp.DialConfig(addr, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// set prefetch if requested
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	// declare/ensure topology idempotently
	if err := declareTopology(ch, topo); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare topology for %s: %w", topo.Queue, err)
	}

	return &Client{conn: conn, ch: ch}, nil
}

// EnableConfirms puts the channel in publisher confirm mode.
func (client *Client) EnableConfirms() error {
	return client.ch.Confirm(false)
}

// PublishConfirmed publishes msg to queue through the default exchange and
// waits until the broker confirms it. The channel must be in confirm mode.
func (client *Client) PublishConfirmed(ctx context.Context, queue string, msg amqp.Publishing) error {
	dc, err := client.ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
	if err != nil {
		return err
	}
	if dc == nil {
		return errors.New("rabbitmq: channel is not in confirm mode")
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq: waiting for confirm: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Consume starts a manual-ack consumer on queue.
func (client *Client) Consume(queue, consumer string) (<-chan amqp.Delivery, error) {
	return client.ch.Consume(
		queue,
		consumer,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
}

// NotifyClose merges connection and channel closure into one notification.
func (client *Client) NotifyClose() <-chan *amqp.Error {
	out := make(chan *amqp.Error, 1)
	connClosed := client.conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := client.ch.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		defer close(out)
		select {
		case e := <-connClosed:
			out <- e
		case e := <-chClosed:
			out <- e
		}
	}()
	return out
}

// IsClosed reports whether the connection or the channel is gone.
func (client *Client) IsClosed() bool {
	return client.conn == nil || client.conn.IsClosed() || client.ch == nil || client.ch.IsClosed()
}

// Close closes the channel and the connection.
func (client *Client) Close() error {
	if client.ch != nil {
		_ = client.ch.Close()
	}
	if client.conn != nil && !client.conn.IsClosed() {
		return client.conn.Close()
	}
	return nil
}

// declareTopology declares the durable order queue and, when configured, its dead-letter pair.
func declareTopology(ch *amqp.Channel, topo Topology) error {
	var args amqp.Table

	if topo.DeadLetterExchange != "" {
		if err := ch.ExchangeDeclare(topo.DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
			return err
		}
		dlq := topo.Queue + ".dead"
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(dlq, "", topo.DeadLetterExchange, false, nil); err != nil {
			return err
		}
		args = amqp.Table{"x-dead-letter-exchange": topo.DeadLetterExchange}
	}

	_, err := ch.QueueDeclare(topo.Queue, true, false, false, false, args)
	return err
}
