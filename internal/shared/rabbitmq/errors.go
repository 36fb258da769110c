package rabbitmq

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConnectionClosed is returned when the delivery stream ends without a broker error.
var ErrConnectionClosed = errors.New("rabbitmq: connection closed")

// ErrPublishNacked is returned when the broker refuses to take a published message.
var ErrPublishNacked = errors.New("rabbitmq: publish not confirmed by broker")

// IsPermanent reports whether reconnecting cannot help: bad credentials,
// unknown vhost, access refused, or a queue/exchange that already exists with
// different arguments (406). Everything else is treated as transient.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp.ErrCredentials) || errors.Is(err, amqp.ErrVhost) {
		return true
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		switch amqpErr.Code {
		case amqp.AccessRefused, amqp.NotAllowed, amqp.PreconditionFailed:
			return true
		}
	}
	return false
}
