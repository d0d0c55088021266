package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Storage   StorageConfig   `yaml:"storage"`
	Stripe    StripeConfig    `yaml:"stripe"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	App       AppConfig       `yaml:"app"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prefetch int    `yaml:"prefetch"`
}

type StorageConfig struct {
	Bucket         string        `yaml:"bucket"`
	Region         string        `yaml:"region"`
	Endpoint       string        `yaml:"endpoint"`
	AccessKeyID    string        `yaml:"access_key_id"`
	SecretKey      string        `yaml:"secret_access_key"`
	ForcePathStyle bool          `yaml:"force_path_style"`
	URLExpiry      time.Duration `yaml:"url_expiry"`
	MaxPhotoBytes  int64         `yaml:"max_photo_bytes"`
	MaxVideoBytes  int64         `yaml:"max_video_bytes"`
}

type StripeConfig struct {
	SecretKey     string            `yaml:"secret_key"`
	WebhookSecret string            `yaml:"webhook_secret"`
	Prices        map[string]string `yaml:"prices"`
	SuccessURL    string            `yaml:"success_url"`
	CancelURL     string            `yaml:"cancel_url"`
	Countries     []string          `yaml:"shipping_countries"`
}

type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl"`
}

type AppConfig struct {
	BaseURL       string `yaml:"base_url"`
	SlugBatchSize int    `yaml:"slug_batch_size"`
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest", Prefetch: 10},
		Storage: StorageConfig{
			Region:        "us-east-1",
			URLExpiry:     15 * time.Minute,
			MaxPhotoBytes: 15 << 20,
			MaxVideoBytes: 200 << 20,
		},
		Stripe: StripeConfig{
			Prices:    map[string]string{},
			Countries: []string{"US", "CA", "GB"},
		},
		RateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 20, IdleTTL: 10 * time.Minute},
		App:       AppConfig{BaseURL: "http://localhost:3000", SlugBatchSize: 100},
	}
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	for plan, key := range map[string]string{
		"basic":    "STRIPE_PRICE_BASIC",
		"premium":  "STRIPE_PRICE_PREMIUM",
		"lifetime": "STRIPE_PRICE_LIFETIME",
	} {
		if v := os.Getenv(key); v != "" {
			c.Stripe.Prices[plan] = v
		}
	}

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Password, "DB_PASSWORD")
	if v := os.Getenv("DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Database.Port = n
		}
	}
	setString(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setString(&c.Storage.Bucket, "S3_BUCKET")
	setString(&c.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Storage.SecretKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.App.BaseURL, "APP_BASE_URL")
}

// Validate checks the settings every subcommand needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("database.database is required"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be positive"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit values must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ConnString returns the libpq-style connection string for pgx.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// URL returns the AMQP dial URL.
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.User, r.Password, r.Host, r.Port)
}
