package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the client.
type Config struct {
	APIBaseURL string        `envconfig:"TRANSFLOW_API_URL" default:"http://127.0.0.1:8080/api"`
	APIToken   string        `envconfig:"TRANSFLOW_API_TOKEN"`
	APITimeout time.Duration `envconfig:"TRANSFLOW_API_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// RedisAddr, when set, shares lookup snapshots across invocations.
	RedisAddr string        `envconfig:"TRANSFLOW_REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"TRANSFLOW_CACHE_TTL" default:"10m"`

	SearchDebounce time.Duration `envconfig:"TRANSFLOW_SEARCH_DEBOUNCE" default:"300ms"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("api base URL must be provided")
	}
	return &cfg, nil
}
