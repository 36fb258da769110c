package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger shared by every service mode.
// Each entry carries service, hostname, action and request_id fields.
type Logger struct {
	service  string
	hostname string
	z        *zap.Logger
}

// NewLogger creates a JSON logger on stdout at info level.
func NewLogger(service string) *Logger {
	l, err := New(service, "info")
	if err != nil {
		// info is always a valid level
		panic(err)
	}
	return l
}

// New creates a JSON logger on stdout at the given level (debug, info, warn, error).
func New(service, level string) (*Logger, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.StacktraceKey = "" // stacks are attached explicitly on Error
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return wrap(service, hostname, z), nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return wrap("nop", "nop", zap.NewNop())
}

func wrap(service, hostname string, z *zap.Logger) *Logger {
	return &Logger{
		service:  service,
		hostname: hostname,
		z:        z.With(zap.String("service", service), zap.String("hostname", hostname)),
	}
}

// Define an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (one per delivery or CLI run).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// RequestIDFrom returns the request id saved in the context, if any.
func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Sync flushes buffered entries.
func (logger *Logger) Sync() {
	_ = logger.z.Sync()
}

func (logger *Logger) fields(ctx context.Context, action string, details any) []zap.Field {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("request_id", RequestIDFrom(ctx)),
	}
	if details != nil {
		fields = append(fields, zap.Any("details", details))
	}
	return fields
}

// -- Logger helper functions --

func (logger *Logger) Info(ctx context.Context, action, msg string, details any) {
	logger.z.Info(msg, logger.fields(ctx, action, details)...)
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details any) {
	logger.z.Debug(msg, logger.fields(ctx, action, details)...)
}

func (logger *Logger) Warn(ctx context.Context, action, msg string, details any) {
	logger.z.Warn(msg, logger.fields(ctx, action, details)...)
}

// Error logs err with a stack trace. A nil err is allowed.
func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	fields := logger.fields(ctx, action, nil)
	fields = append(fields, zap.Error(err), zap.Stack("stack"))
	logger.z.Error(msg, fields...)
}
