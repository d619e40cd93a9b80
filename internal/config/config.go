package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Shiprocket ShiprocketConfig `yaml:"shiprocket"`
	Retry      RetryConfig      `yaml:"retry"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Sync       SyncConfig       `yaml:"sync"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret" env:"SHIPROCKET_WEBHOOK_SECRET"`
	// SkipVerification accepts unsigned webhooks. Local development only.
	SkipVerification bool          `yaml:"skip_verification" env:"WEBHOOK_SKIP_VERIFICATION"`
	DedupeSize       int           `yaml:"dedupe_size" env-default:"10000"`
	DedupeTTL        time.Duration `yaml:"dedupe_ttl" env-default:"24h"`
}

type AnalyticsConfig struct {
	BaseURL      string        `yaml:"base_url" env:"ANALYTICS_BASE_URL"`
	APIKey       string        `yaml:"api_key" env:"ANALYTICS_API_KEY"`
	APIKeyHeader string        `yaml:"api_key_header" env-default:"X-API-Key"`
	ChunkSize    int           `yaml:"chunk_size" env-default:"100"`
	Timeout      time.Duration `yaml:"timeout" env-default:"30s"`
	OAuth        OAuthConfig   `yaml:"oauth"`
}

type OAuthConfig struct {
	TokenURL     string `yaml:"token_url" env:"ANALYTICS_TOKEN_URL"`
	ClientID     string `yaml:"client_id" env:"ANALYTICS_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"ANALYTICS_CLIENT_SECRET"`
	Scope        string `yaml:"scope"`
}

// Enabled reports whether client-credentials auth should replace the API key.
func (o OAuthConfig) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != ""
}

type ShiprocketConfig struct {
	BaseURL  string        `yaml:"base_url" env:"SHIPROCKET_BASE_URL" env-default:"https://apiv2.shiprocket.in"`
	Email    string        `yaml:"email" env:"SHIPROCKET_EMAIL"`
	Password string        `yaml:"password" env:"SHIPROCKET_PASSWORD"`
	PerPage  int           `yaml:"per_page" env-default:"50"`
	Timeout  time.Duration `yaml:"timeout" env-default:"30s"`
}

type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" env-default:"3"`
	BaseDelay     time.Duration `yaml:"base_delay" env-default:"1s"`
	BackoffFactor float64       `yaml:"backoff_factor" env-default:"2"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" env-default:"5"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" env-default:"30s"`
}

type SyncConfig struct {
	// Interval of the catch-up scheduler; zero disables it.
	Interval time.Duration `yaml:"interval" env:"SYNC_INTERVAL"`
	Lookback time.Duration `yaml:"lookback" env-default:"24h"`
}

type PostgresConfig struct {
	Port    string `yaml:"port" env:"POSTGRES_PORT"`
	Host    string `yaml:"host" env:"POSTGRES_HOST"`
	DbName  string `yaml:"db_name" env:"POSTGRES_DB"`
	User    string `yaml:"user" env:"POSTGRES_USER"`
	Pwd     string `yaml:"password" env:"POSTGRES_PASSWORD"`
	SslMode string `yaml:"sslmode" env-default:"disable"`
}

// Enabled reports whether the sync run ledger should be stored in Postgres.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type KafkaConfig struct {
	BrokerList        []string `yaml:"broker_list" env:"KAFKA_BROKERS" env-separator:","`
	FailedEventsTopic string   `yaml:"failed_events_topic" env-default:"shiprocket.failed-metrics"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.BrokerList) > 0
}

// InitConfig loads the config whose path is given by the -config flag or
// CONFIG_PATH, panicking on failure.
func InitConfig() Config {
	cfg, err := Load(getConfigPath())
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load reads an optional .env file, then the YAML file at configPath, then
// environment overrides.
func Load(configPath string) (Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%s: load .env: %w", op, err)
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		return Config{}, fmt.Errorf("%s: config path is not set", op)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Webhook.Secret == "" && !c.Webhook.SkipVerification {
		return errors.New("webhook.secret is required unless webhook.skip_verification is set")
	}
	if c.Analytics.BaseURL == "" {
		return errors.New("analytics.base_url is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Breaker.FailureThreshold < 1 {
		return errors.New("breaker.failure_threshold must be at least 1")
	}
	if c.Sync.Interval < 0 || c.Sync.Lookback < 0 {
		return errors.New("sync.interval and sync.lookback must not be negative")
	}

	return nil
}

func getConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	return path
}
