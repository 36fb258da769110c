package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TICKETS_RABBITMQ_PASSWORD.
const EnvPrefix = "TICKETS"

type Config struct {
	RabbitMQ struct {
		Host               string        `mapstructure:"host"`
		Port               int           `mapstructure:"port"`
		User               string        `mapstructure:"user"`
		Password           string        `mapstructure:"password"`
		VHost              string        `mapstructure:"vhost"`
		Queue              string        `mapstructure:"queue"`
		DeadLetterExchange string        `mapstructure:"dead_letter_exchange"`
		PayloadFormat      string        `mapstructure:"payload_format"` // "text" | "json"
		Prefetch           int           `mapstructure:"prefetch"`
		ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	} `mapstructure:"rabbitmq"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"database"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled    bool          `mapstructure:"enabled"`
		Addr       string        `mapstructure:"addr"`
		Password   string        `mapstructure:"password"`
		DB         int           `mapstructure:"db"`
		PrintedTTL time.Duration `mapstructure:"printed_ttl"`
	} `mapstructure:"redis"`
	BigCommerce struct {
		BaseURL       string        `mapstructure:"base_url"`
		StoreHash     string        `mapstructure:"store_hash"`
		AccessToken   string        `mapstructure:"access_token"`
		Timeout       time.Duration `mapstructure:"timeout"`
		MaxRetries    int           `mapstructure:"max_retries"`
		RetryInterval time.Duration `mapstructure:"retry_interval"`
	} `mapstructure:"bigcommerce"`
	Company struct {
		Name    string `mapstructure:"name"`
		Address string `mapstructure:"address"`
		Phone   string `mapstructure:"phone"`
	} `mapstructure:"company"`
	Ticket struct {
		TemplatePath string        `mapstructure:"template_path"`
		OutputDir    string        `mapstructure:"output_dir"`
		Timezone     string        `mapstructure:"timezone"`
		OrderTimeout time.Duration `mapstructure:"order_timeout"`
	} `mapstructure:"ticket"`
	Print struct {
		Command     string        `mapstructure:"command"`
		Printer     string        `mapstructure:"printer"`
		Timeout     time.Duration `mapstructure:"timeout"`
		KeepTickets bool          `mapstructure:"keep_tickets"`
	} `mapstructure:"print"`
	Log struct {
		Level      string `mapstructure:"level"`
		OutcomeCSV string `mapstructure:"outcome_csv"`
	} `mapstructure:"log"`
	Ops struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"ops"`
	Intake struct {
		Addr   string `mapstructure:"addr"`
		Secret string `mapstructure:"secret"` // expected X-Webhook-Secret header; empty disables the check
	} `mapstructure:"intake"`
}

// LoadFromFile loads .env (if present), then the YAML file at path, applies
// defaults and TICKETS_* environment overrides, and validates everything the
// ticket worker needs.
func LoadFromFile(path string) (*Config, error) {
	return load(path, (*Config).validate)
}

// LoadIntakeFromFile loads the configuration like LoadFromFile but validates
// only the sections the order intake uses (rabbitmq and intake).
func LoadIntakeFromFile(path string) (*Config, error) {
	return load(path, (*Config).validateIntake)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults registers every key so env overrides work even when the file omits it.
func applyDefaults(v *viper.Viper) {
	// RabbitMQ
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "/")
	v.SetDefault("rabbitmq.queue", "bc_orders")
	v.SetDefault("rabbitmq.dead_letter_exchange", "")
	v.SetDefault("rabbitmq.payload_format", "text")
	v.SetDefault("rabbitmq.prefetch", 1)
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.sslmode", "disable")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.printed_ttl", 72*time.Hour)

	// BigCommerce
	v.SetDefault("bigcommerce.base_url", "https://api.bigcommerce.com")
	v.SetDefault("bigcommerce.store_hash", "")
	v.SetDefault("bigcommerce.access_token", "")
	v.SetDefault("bigcommerce.timeout", 15*time.Second)
	v.SetDefault("bigcommerce.max_retries", 2)
	v.SetDefault("bigcommerce.retry_interval", 500*time.Millisecond)

	// Company
	v.SetDefault("company.name", "")
	v.SetDefault("company.address", "")
	v.SetDefault("company.phone", "")

	// Ticket
	v.SetDefault("ticket.template_path", "templates/ticket.yaml")
	v.SetDefault("ticket.output_dir", "tickets")
	v.SetDefault("ticket.timezone", "Local")
	v.SetDefault("ticket.order_timeout", 60*time.Second)

	// Print
	v.SetDefault("print.command", "lp")
	v.SetDefault("print.printer", "")
	v.SetDefault("print.timeout", 30*time.Second)
	v.SetDefault("print.keep_tickets", true)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.outcome_csv", "logs/ticket_outcomes.csv")

	// Ops
	v.SetDefault("ops.addr", ":9102")

	// Intake
	v.SetDefault("intake.addr", ":3000")
	v.SetDefault("intake.secret", "")
}

// validate checks required fields and basic ranges for the ticket worker.
func (c *Config) validate() error {
	problems := c.brokerProblems()

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database (name) is required")
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when redis.enabled")
	}

	// BigCommerce
	if c.BigCommerce.StoreHash == "" {
		problems = append(problems, "bigcommerce.store_hash is required")
	}
	if c.BigCommerce.AccessToken == "" {
		problems = append(problems, "bigcommerce.access_token is required")
	}
	if c.BigCommerce.Timeout <= 0 {
		problems = append(problems, "bigcommerce.timeout must be > 0")
	}
	if c.BigCommerce.MaxRetries < 0 {
		problems = append(problems, "bigcommerce.max_retries must be >= 0")
	}

	// Ticket
	if c.Ticket.TemplatePath == "" {
		problems = append(problems, "ticket.template_path is required")
	}
	if c.Ticket.OutputDir == "" {
		problems = append(problems, "ticket.output_dir is required")
	}
	if _, err := time.LoadLocation(c.Ticket.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("ticket.timezone %q is not a known location", c.Ticket.Timezone))
	}
	if c.Ticket.OrderTimeout <= 0 {
		problems = append(problems, "ticket.order_timeout must be > 0")
	}

	// Print
	if c.Print.Command == "" {
		problems = append(problems, "print.command is required")
	}
	if c.Print.Timeout <= 0 {
		problems = append(problems, "print.timeout must be > 0")
	}

	return joinProblems(problems)
}

// validateIntake checks only what the order intake uses.
func (c *Config) validateIntake() error {
	problems := c.brokerProblems()
	if strings.TrimSpace(c.Intake.Addr) == "" {
		problems = append(problems, "intake.addr is required")
	}
	return joinProblems(problems)
}

func (c *Config) brokerProblems() []string {
	var problems []string
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Queue == "" {
		problems = append(problems, "rabbitmq.queue is required")
	}
	switch c.RabbitMQ.PayloadFormat {
	case "text", "json":
	default:
		problems = append(problems, "rabbitmq.payload_format must be text or json")
	}
	if c.RabbitMQ.Prefetch <= 0 {
		problems = append(problems, "rabbitmq.prefetch must be > 0")
	}
	if c.RabbitMQ.ReconnectDelay <= 0 {
		problems = append(problems, "rabbitmq.reconnect_delay must be > 0")
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the time zone tickets are printed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ticket.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
