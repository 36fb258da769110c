package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/retailops/ticketworker/internal/shared/logger"
)

// State is the consumer connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConsuming    State = "consuming"
	StateReconnecting State = "reconnecting"
)

// AllStates lists every State, e.g. for gauge labels.
var AllStates = []string{
	string(StateDisconnected),
	string(StateConnecting),
	string(StateConsuming),
	string(StateReconnecting),
}

// Handler processes one delivery and is responsible for acking it.
type Handler func(ctx context.Context, d amqp.Delivery)

// ConsumerOptions configures a Consumer.
type ConsumerOptions struct {
	Queue          string
	Tag            string
	ReconnectDelay time.Duration
	OnState        func(State) // optional
}

// Consumer owns the broker session and feeds deliveries to a Handler one at a time.
type Consumer struct {
	dial   DialFunc
	opts   ConsumerOptions
	logger *logger.Logger

	mu    sync.RWMutex
	state State
}

func NewConsumer(dial DialFunc, opts ConsumerOptions, logger *logger.Logger) *Consumer {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	return &Consumer{dial: dial, opts: opts, logger: logger, state: StateDisconnected}
}

// State returns the current connection state.
func (c *Consumer) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Run consumes until ctx is cancelled (returns nil) or the broker rejects the
// credentials, vhost or access (returns the error). Transient faults are retried
// forever with a fixed delay.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	defer c.setState(ctx, StateDisconnected)
	c.setState(ctx, StateConnecting)

	for {
		if ctx.Err() != nil {
			return nil
		}

		sess, err := c.dial(ctx)
		if err == nil {
			err = c.consume(ctx, sess, handle)
			_ = sess.Close()
			if err == nil {
				return nil
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		if IsPermanent(err) {
			c.logger.Error(ctx, "rabbitmq_permanent_failure", "Broker refused the connection; giving up", err)
			return fmt.Errorf("rabbitmq: %w", err)
		}

		c.logger.Error(ctx, "rabbitmq_connection_lost",
			fmt.Sprintf("RabbitMQ unavailable, retrying in %s", c.opts.ReconnectDelay), err)
		c.setState(ctx, StateReconnecting)
		if !sleepWithContext(ctx, c.opts.ReconnectDelay) {
			return nil
		}
		c.setState(ctx, StateConnecting)
	}
}

// consume reads deliveries until the session breaks (error) or ctx ends (nil).
func (c *Consumer) consume(ctx context.Context, sess Session, handle Handler) error {
	closed := sess.NotifyClose()

	deliveries, err := sess.Consume(c.opts.Queue, c.opts.Tag)
	if err != nil {
		return err
	}
	c.setState(ctx, StateConsuming)

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return amqpErr
			}
			return ErrConnectionClosed
		case d, ok := <-deliveries:
			if !ok {
				return ErrConnectionClosed
			}
			handle(ctx, d)
		}
	}
}

func (c *Consumer) setState(ctx context.Context, next State) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	if prev == next {
		return
	}

	c.logger.Info(ctx, "rabbitmq_state_changed", "Broker consumer state changed", map[string]any{
		"from":  prev,
		"to":    next,
		"queue": c.opts.Queue,
	})
	if c.opts.OnState != nil {
		c.opts.OnState(next)
	}
}

// sleepWithContext waits for d or ctx; false means ctx ended first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
