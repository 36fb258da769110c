package ticketworker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/retailops/ticketworker/internal/app/fulfillment"
	"github.com/retailops/ticketworker/internal/app/opsservice"
	"github.com/retailops/ticketworker/internal/shared/bigcommerce"
	"github.com/retailops/ticketworker/internal/shared/config"
	"github.com/retailops/ticketworker/internal/shared/contracts"
	"github.com/retailops/ticketworker/internal/shared/eventlog"
	"github.com/retailops/ticketworker/internal/shared/httpx"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/metrics"
	pg "github.com/retailops/ticketworker/internal/shared/postgres"
	"github.com/retailops/ticketworker/internal/shared/printer"
	"github.com/retailops/ticketworker/internal/shared/rabbitmq"
	"github.com/retailops/ticketworker/internal/shared/redisx"
	"github.com/retailops/ticketworker/internal/shared/ticket"
)

const serviceName = "ticket-worker"

// Run consumes order ids from the broker and prints a ticket for each eligible order
// until ctx is cancelled or the broker refuses the credentials.
func Run(ctx context.Context, configPath string) error {
	cfg, logger, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx = logger.WithRequestID(ctx, "startup")

	m := metrics.New()
	env, err := newEnvironment(ctx, cfg, logger, m, cfg.Redis.Enabled)
	if err != nil {
		return err
	}
	defer env.Close()

	hostname, _ := os.Hostname()
	consumer := rabbitmq.NewConsumer(rabbitmq.Dialer(cfg), rabbitmq.ConsumerOptions{
		Queue:          cfg.RabbitMQ.Queue,
		Tag:            fmt.Sprintf("%s-%s-%d", serviceName, hostname, os.Getpid()),
		ReconnectDelay: cfg.RabbitMQ.ReconnectDelay,
		OnState: func(s rabbitmq.State) {
			m.SetBrokerState(string(s), rabbitmq.AllStates)
			if s == rabbitmq.StateReconnecting {
				m.IncReconnect()
			}
		},
	}, logger)

	// ops server lives as long as the consumer
	opsCtx, stopOps := context.WithCancel(ctx)
	defer stopOps()
	opsDone := make(chan struct{})
	go func() {
		defer close(opsDone)
		handler := opsservice.NewHandler(logger, m.Registry(), map[string]opsservice.Check{
			"rabbitmq": func(context.Context) error {
				if s := consumer.State(); s != rabbitmq.StateConsuming {
					return fmt.Errorf("broker consumer is %s", s)
				}
				return nil
			},
			"postgres": env.pool.Ping,
		})
		if err := httpx.Serve(opsCtx, cfg.Ops.Addr, handler.Router(), logger); err != nil {
			logger.Error(opsCtx, "ops_server_failed", "Ops server stopped", err)
		}
	}()

	logger.Info(ctx, "service_started", "Ticket worker started", map[string]any{
		"queue":          cfg.RabbitMQ.Queue,
		"payload_format": cfg.RabbitMQ.PayloadFormat,
		"output_dir":     cfg.Ticket.OutputDir,
		"printed_marker": cfg.Redis.Enabled,
	})

	runErr := consumer.Run(ctx, func(ctx context.Context, d amqp.Delivery) {
		handleDelivery(ctx, logger, env.processor, m, d)
	})

	stopOps()
	<-opsDone

	if runErr != nil {
		logger.Error(ctx, "service_stopped", "Ticket worker stopped on a broker fault", runErr)
		return runErr
	}
	logger.Info(ctx, "graceful_shutdown", "Ticket worker shutdown completed", nil)
	return nil
}

// Reprint runs one order through the pipeline without the broker. The printed
// marker is bypassed so an operator can always force a new ticket.
func Reprint(ctx context.Context, configPath, orderID string) error {
	cfg, logger, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx = logger.WithRequestID(ctx, newRequestID())

	env, err := newEnvironment(ctx, cfg, logger, nil, false)
	if err != nil {
		return err
	}
	defer env.Close()

	res := env.processor.Process(ctx, orderID)
	if res.Err != nil {
		return res.Err
	}
	if res.Outcome.IsSkip() {
		return fmt.Errorf("order %s not printed: %s", orderID, res.Outcome)
	}
	return nil
}

// bootstrap loads the configuration and builds the logger at the configured level.
func bootstrap(ctx context.Context, configPath string) (*config.Config, *logger.Logger, error) {
	// set up a boot logger until the configured level is known
	boot := logger.NewLogger(serviceName)
	ctx = boot.WithRequestID(ctx, "startup")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		boot.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return nil, nil, err
	}

	log, err := logger.New(serviceName, cfg.Log.Level)
	if err != nil {
		boot.Error(ctx, "logger_init_failed", "Failed to initialize logger", err)
		return nil, nil, err
	}
	return cfg, log, nil
}

// environment holds the processor and the connections it owns.
type environment struct {
	processor *fulfillment.Processor
	pool      *pgxpool.Pool
	redis     *redis.Client
}

func (e *environment) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

func newEnvironment(ctx context.Context, cfg *config.Config, logger *logger.Logger, m *metrics.Metrics, withMarker bool) (*environment, error) {
	env := &environment{}

	// set up a Postgres connection pool
	pool, err := pg.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return nil, err
	}
	env.pool = pool

	sink, err := eventlog.NewCSVSink(cfg.Log.OutcomeCSV)
	if err != nil {
		env.Close()
		logger.Error(ctx, "outcome_log_failed", "Failed to open outcome log", err)
		return nil, err
	}

	gateway := bigcommerce.NewClient(bigcommerce.Options{
		BaseURL:       cfg.BigCommerce.BaseURL,
		StoreHash:     cfg.BigCommerce.StoreHash,
		AccessToken:   cfg.BigCommerce.AccessToken,
		Timeout:       cfg.BigCommerce.Timeout,
		MaxRetries:    cfg.BigCommerce.MaxRetries,
		RetryInterval: cfg.BigCommerce.RetryInterval,
	})

	deps := fulfillment.Deps{
		Format:     contracts.PayloadFormat(cfg.RabbitMQ.PayloadFormat),
		Normalizer: fulfillment.NewNormalizer(gateway, pg.NewCatalogRepo(pool), cfg.Location(), logger),
		Generator: ticket.NewGenerator(cfg.Ticket.TemplatePath, cfg.Ticket.OutputDir, ticket.Company{
			Name:    cfg.Company.Name,
			Address: cfg.Company.Address,
			Phone:   cfg.Company.Phone,
		}),
		Dispatcher: printer.NewDispatcher(
			printer.NewCommandPrinter(cfg.Print.Command, cfg.Print.Printer, cfg.Print.Timeout),
			cfg.Print.KeepTickets,
			logger,
		),
		Sink:    sink,
		Metrics: m,
		Logger:  logger,
		Timeout: cfg.Ticket.OrderTimeout,
	}

	if withMarker {
		rdb, err := redisx.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			env.Close()
			logger.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err)
			return nil, errors.Join(errors.New("redis.enabled is set but redis is unreachable"), err)
		}
		env.redis = rdb
		deps.Marker = redisx.NewPrintedMarker(rdb, cfg.Redis.PrintedTTL)
	}

	env.processor = fulfillment.NewProcessor(deps)
	return env, nil
}
