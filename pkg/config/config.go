package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Platform  PlatformConfig  `envconfig:"PLATFORM"`
	Scheduler SchedulerConfig `envconfig:"SCHEDULER"`
	Processor ProcessorConfig `envconfig:"PROCESSOR"`
	Reconcile ReconcileConfig `envconfig:"RECONCILE"`
	Log       LogConfig       `envconfig:"LOG"`
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

type PlatformConfig struct {
	BaseURL      string `envconfig:"BASE_URL"`
	ClientID     string `envconfig:"CLIENT_ID"`
	ClientSecret string `envconfig:"CLIENT_SECRET"`
	RefreshToken string `envconfig:"REFRESH_TOKEN"`
	// Capture and token refresh carry separate deadlines; a hung capture
	// must not be confused with a slow token endpoint.
	CaptureTimeout time.Duration `envconfig:"CAPTURE_TIMEOUT" default:"30s"`
	TokenTimeout   time.Duration `envconfig:"TOKEN_TIMEOUT" default:"10s"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	RequestsPerSec float64       `envconfig:"REQUESTS_PER_SEC" default:"2"`
	Burst          int           `envconfig:"BURST" default:"4"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	// DefaultDelay applies when a deferred order carries no capture_at
	// attribute. Authorization holds on most processors expire after about
	// seven days, so the default stays well inside that window.
	DefaultDelay time.Duration `envconfig:"DEFAULT_DELAY" default:"72h"`
	// MaxAttempts=1 means a failed capture is terminal. Raise it to retry
	// transient capture failures with exponential backoff.
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"30s"`
	RetryMaxDelay  time.Duration `envconfig:"RETRY_MAX_DELAY" default:"10m"`
}

type ProcessorConfig struct {
	Workers         int           `envconfig:"WORKERS" default:"4"`
	QueueSize       int           `envconfig:"QUEUE_SIZE" default:"256"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

type ReconcileConfig struct {
	// Interval of 0 disables the reconciliation pass.
	Interval time.Duration `envconfig:"INTERVAL" default:"24h"`
	Lookback time.Duration `envconfig:"LOOKBACK" default:"168h"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"console"` // json in prod
}

// Address returns the full server address
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads config from env variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the parts of the config that cannot default sensibly.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Platform.BaseURL == "" {
		return fmt.Errorf("PLATFORM_BASE_URL must be set")
	}

	if c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got: %s", c.Scheduler.SweepInterval)
	}

	if c.Scheduler.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got: %d", c.Scheduler.MaxAttempts)
	}

	if c.Processor.Workers <= 0 {
		return fmt.Errorf("processor workers must be positive, got: %d", c.Processor.Workers)
	}

	if c.Reconcile.Interval < 0 {
		return fmt.Errorf("reconcile interval cannot be negative, got: %s", c.Reconcile.Interval)
	}

	return nil
}
