package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the single configuration surface for the edge service. It is
// loaded once at startup; nothing reads environment variables mid-request.
type Config struct {
	Environment string `env:"GUARDIAO_ENV" envDefault:"development"`
	HTTPAddr    string `env:"GUARDIAO_HTTP_ADDR" envDefault:":8080"`

	Auth      AuthConfig      `envPrefix:"GUARDIAO_AUTH_"`
	Bypass    BypassConfig    `envPrefix:"GUARDIAO_BYPASS_"`
	RateLimit RateLimitConfig `envPrefix:"GUARDIAO_RATE_LIMIT_"`
	Webhook   WebhookConfig   `envPrefix:"GUARDIAO_WEBHOOK_"`
	Database  DatabaseConfig  `envPrefix:"GUARDIAO_DB_"`
	Telemetry TelemetryConfig `envPrefix:"GUARDIAO_OTEL_"`
}

// AuthConfig points at the external auth/session service. When URL or key is
// empty the pipeline degrades to anonymous sessions instead of failing.
type AuthConfig struct {
	ServiceURL string        `env:"SERVICE_URL"`
	ServiceKey string        `env:"SERVICE_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"3s"`
	CacheTTL   time.Duration `env:"CACHE_TTL" envDefault:"30s"`
}

// BypassConfig guards the automated-test bypass cookie. The cookie is only
// honored outside production and only when its value hashes to TokenHash.
type BypassConfig struct {
	TokenHash string `env:"TOKEN_HASH"`
}

// RateLimitConfig selects the limiter store backend. An empty RedisAddr
// keeps the limiter in process memory.
type RateLimitConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

type WebhookConfig struct {
	// Secrets maps provider name to its signing secret, e.g.
	// "stripe:whsec_abc,pagarme:whsec_def".
	Secrets   map[string]string `env:"SECRETS" envSeparator:","`
	Tolerance time.Duration     `env:"TOLERANCE" envDefault:"5m"`
}

type DatabaseConfig struct {
	Path string `env:"PATH" envDefault:"guardiao.db"`
}

type TelemetryConfig struct {
	Enabled          bool    `env:"ENABLED"`
	ServiceName      string  `env:"SERVICE_NAME" envDefault:"guardiao"`
	ExporterEndpoint string  `env:"EXPORTER_ENDPOINT"`
	SamplingRatio    float64 `env:"SAMPLING_RATIO" envDefault:"0.1"`
}

var ErrInvalidEnvironment = errors.New("config: invalid environment")

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(c *Config) error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
		return nil
	}
	return ErrInvalidEnvironment
}

func (c Config) IsDevelopment() bool { return c.Environment == EnvDevelopment }

func (c Config) IsProduction() bool { return c.Environment == EnvProduction }
