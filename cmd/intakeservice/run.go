package intakeservice

import (
	"context"
	"net/http"

	service "github.com/retailops/ticketworker/internal/app/intakeservice"
	"github.com/retailops/ticketworker/internal/app/opsservice"
	"github.com/retailops/ticketworker/internal/shared/config"
	"github.com/retailops/ticketworker/internal/shared/contracts"
	"github.com/retailops/ticketworker/internal/shared/httpx"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/rabbitmq"
)

const serviceName = "order-intake"

// Run serves the order webhook endpoint and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	boot := logger.NewLogger(serviceName)
	ctx = boot.WithRequestID(ctx, "startup")

	// load a config from file
	cfg, err := config.LoadIntakeFromFile(configPath)
	if err != nil {
		boot.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	logger, err := logger.New(serviceName, cfg.Log.Level)
	if err != nil {
		boot.Error(ctx, "logger_init_failed", "Failed to initialize logger", err)
		return err
	}
	defer logger.Sync()

	// the broker connection opens on the first publish or readiness probe
	pub := rabbitmq.NewPublisher(cfg, logger)
	defer pub.Close()

	svc := service.New(pub, cfg.RabbitMQ.Queue, contracts.PayloadFormat(cfg.RabbitMQ.PayloadFormat), logger)

	// /healthz and /readyz come from the ops router; no metrics registry here
	r := opsservice.NewHandler(logger, nil, map[string]opsservice.Check{
		"rabbitmq": pub.Ping,
	}).Router()
	service.NewHandler(svc, cfg.Intake.Secret, logger).Register(r)

	logger.Info(ctx, "service_started", "Order intake started", map[string]any{
		"addr":           cfg.Intake.Addr,
		"queue":          cfg.RabbitMQ.Queue,
		"payload_format": cfg.RabbitMQ.PayloadFormat,
		"max_concurrent": maxConcurrent,
		"secret_check":   cfg.Intake.Secret != "",
	})

	if err := httpx.Serve(ctx, cfg.Intake.Addr, withConcurrencyLimit(maxConcurrent, r), logger); err != nil {
		logger.Error(ctx, "service_stopped", "Order intake stopped", err)
		return err
	}
	logger.Info(ctx, "graceful_shutdown", "Order intake shutdown completed", nil)
	return nil
}

// withConcurrencyLimit blocks requests once n are in flight. n <= 0 disables the limit.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
		case <-r.Context().Done():
			http.Error(w, `{"error":"request cancelled"}`, http.StatusServiceUnavailable)
			return
		}
		defer func() { <-sem }()
		next.ServeHTTP(w, r)
	})
}
