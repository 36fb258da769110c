package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	l := NewNop()
	ctx := l.WithRequestID(context.Background(), "req-42")

	assert.Equal(t, "req-42", RequestIDFrom(ctx))
	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("ticket-worker", "loud")
	require.Error(t, err)
}

func TestNopLoggerAcceptsNilError(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Error(context.Background(), "noop", "nil error is fine", nil)
		l.Error(context.Background(), "noop", "real error", errors.New("boom"))
		l.Info(context.Background(), "noop", "details", map[string]any{"k": "v"})
	})
}
