package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
rabbitmq:
  queue: bc_orders
database:
  user: tickets
  password: secret
  database: catalog
bigcommerce:
  store_hash: abc123
  access_token: token
ticket:
  timezone: America/New_York
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RabbitMQ.Host)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, "text", cfg.RabbitMQ.PayloadFormat)
	assert.Equal(t, 1, cfg.RabbitMQ.Prefetch)
	assert.Equal(t, 5*time.Second, cfg.RabbitMQ.ReconnectDelay)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "lp", cfg.Print.Command)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.Equal(t, ":3000", cfg.Intake.Addr)
	assert.Empty(t, cfg.Intake.Secret)
}

func TestLoadFromFileEnvOverride(t *testing.T) {
	t.Setenv("TICKETS_RABBITMQ_PASSWORD", "from-env")
	t.Setenv("TICKETS_RABBITMQ_PAYLOAD_FORMAT", "json")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.RabbitMQ.Password)
	assert.Equal(t, "json", cfg.RabbitMQ.PayloadFormat)
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
print:
  timeout: 45s
`))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Print.Timeout)
}

func TestLoadFromFileCollectsProblems(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, `
rabbitmq:
  payload_format: xml
ticket:
  timezone: Mars/Olympus
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "rabbitmq.payload_format must be text or json")
	assert.Contains(t, msg, "database.user is required")
	assert.Contains(t, msg, "bigcommerce.store_hash is required")
	assert.Contains(t, msg, "ticket.timezone")
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadIntakeFromFileSkipsWorkerSections(t *testing.T) {
	cfg, err := LoadIntakeFromFile(writeConfig(t, `
rabbitmq:
  queue: bc_orders
  payload_format: json
intake:
  addr: ":8088"
  secret: hook-secret
`))
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.Intake.Addr)
	assert.Equal(t, "hook-secret", cfg.Intake.Secret)
	assert.Equal(t, "json", cfg.RabbitMQ.PayloadFormat)
	assert.Empty(t, cfg.Database.User)
	assert.Empty(t, cfg.BigCommerce.StoreHash)

	// the worker still refuses the same file
	_, err = LoadFromFile(writeConfig(t, "rabbitmq:\n  queue: bc_orders\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.user is required")
}

func TestLoadIntakeFromFileValidatesBroker(t *testing.T) {
	_, err := LoadIntakeFromFile(writeConfig(t, `
rabbitmq:
  queue: ""
  payload_format: xml
intake:
  addr: " "
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "rabbitmq.queue is required")
	assert.Contains(t, msg, "rabbitmq.payload_format must be text or json")
	assert.Contains(t, msg, "intake.addr is required")
	assert.NotContains(t, msg, "database")
	assert.NotContains(t, msg, "bigcommerce")
}
