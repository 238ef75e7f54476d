package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

var ErrConfigMissing = errors.New("required configuration missing")

type Config struct {
	Env     string `env:"APP_ENV" env-default:"development"`
	Server  ServerConfig
	Storage StorageConfig
	Kafka   KafkaConfig
}

type ServerConfig struct {
	Addr            string        `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StorageConfig describes the S3-compatible bucket (Cloudflare R2) plus the
// public-facing bases used to resolve stored keys into browser URLs.
type StorageConfig struct {
	Account         string   `env:"R2_ACCOUNT"`
	AccessKeyID     string   `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string   `env:"R2_SECRET_ACCESS_KEY"`
	Bucket          string   `env:"R2_BUCKET" env-default:"images"`
	PublicBaseURL   string   `env:"R2_PUBLIC_URL"`
	CDNBaseURL      string   `env:"CDN_BASE_URL"`
	PublicHost      string   `env:"PUBLIC_HOST"`
	AllowedHosts    []string `env:"ALLOWED_IMAGE_HOSTS" env-separator:","`
}

type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS" env-separator:","`
	EventsTopic string   `env:"KAFKA_EVENTS_TOPIC" env-default:"image-stored"`
}

func MustLoad() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyFallbacks(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyFallbacks honors the alternate variable names some deployments use.
func applyFallbacks(cfg *Config) {
	if cfg.Storage.Account == "" {
		cfg.Storage.Account = os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = os.Getenv("NEXT_PUBLIC_R2_PUBLIC_URL")
	}
	if cfg.Storage.CDNBaseURL == "" {
		cfg.Storage.CDNBaseURL = os.Getenv("NEXT_PUBLIC_CDN_BASE")
	}
	if cfg.Storage.PublicHost == "" {
		cfg.Storage.PublicHost = os.Getenv("NEXT_PUBLIC_PUBLIC_HOST")
	}

	cfg.Storage.PublicBaseURL = strings.TrimRight(cfg.Storage.PublicBaseURL, "/")
	cfg.Storage.CDNBaseURL = strings.TrimRight(cfg.Storage.CDNBaseURL, "/")
}

func (c *Config) validate() error {
	var missing []string

	if c.Storage.Account == "" {
		missing = append(missing, "R2_ACCOUNT")
	}
	if c.Storage.AccessKeyID == "" {
		missing = append(missing, "R2_ACCESS_KEY_ID")
	}
	if c.Storage.SecretAccessKey == "" {
		missing = append(missing, "R2_SECRET_ACCESS_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}

	return nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Endpoint derives the S3-compatible endpoint from the R2 account id.
func (s StorageConfig) Endpoint() string {
	return fmt.Sprintf("%s.r2.cloudflarestorage.com", s.Account)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: 3,
		Delay:    150 * time.Millisecond,
		Backoff:  2,
	}
}

func (c *Config) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
