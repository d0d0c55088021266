package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 8080
  write_timeout: 2m
database:
  host: db.local
  user: trophy
  password: secret
  database: tagmytrophy
rabbitmq:
  host: mq.local
stripe:
  prices:
    basic: price_basic
storage:
  bucket: memories
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "mq.local", cfg.RabbitMQ.Host)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, "price_basic", cfg.Stripe.Prices["basic"])
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, int64(15<<20), cfg.Storage.MaxPhotoBytes)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("STRIPE_PRICE_PREMIUM", "price_premium_env")
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "sk_test_env", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "price_premium_env", cfg.Stripe.Prices["premium"])
	assert.Equal(t, "price_basic", cfg.Stripe.Prices["basic"])
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
	assert.Contains(t, err.Error(), "server.port must be positive")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConnStrings(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", d.ConnString())

	r := RabbitMQConfig{Host: "h", Port: 5672, User: "u", Password: "p"}
	assert.Equal(t, "amqp://u:p@h:5672/", r.URL())
}
