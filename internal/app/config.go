package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the service and the worker.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	ChartTTL   time.Duration `envconfig:"CHART_TTL" default:"168h"`
	PaletteTTL time.Duration `envconfig:"PALETTE_TTL" default:"0s"`
	ExportTTL  time.Duration `envconfig:"EXPORT_TTL" default:"24h"`

	SelectionChannel string `envconfig:"SELECTION_CHANNEL" default:"stackchart:selections"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	RateLimit       int  `envconfig:"RATE_LIMIT" default:"120"`
	ExportRateLimit int  `envconfig:"EXPORT_RATE_LIMIT" default:"10"`
	DesktopHost     bool `envconfig:"DESKTOP_HOST" default:"false"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis address must be provided")
	}
	if cfg.RateLimit <= 0 {
		return nil, errors.New("rate limit must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
