package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the serving process. Values come from the
// environment; a .env file is loaded by main before parsing.
type Config struct {
	Port             string   `envconfig:"PORT" default:"8082"`
	Environment      string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS" default:"false"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	TokenSecret string `envconfig:"TOKEN_SECRET" default:"dev-only-secret"`

	// PresenceTTL is the lifetime of a presence marker; HeartbeatInterval is
	// the ping cadence advertised to clients. The TTL must be at least twice
	// the interval so one missed beat does not flap presence.
	PresenceTTL       time.Duration `envconfig:"PRESENCE_TTL" default:"60s"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"25s"`

	// MembershipCacheTTL bounds how long a stale membership set may keep
	// receiving room traffic.
	MembershipCacheTTL time.Duration `envconfig:"MEMBERSHIP_CACHE_TTL" default:"30s"`

	// SendBuffer is the per-connection outbound queue length. A connection
	// that falls this far behind is dropped.
	SendBuffer int `envconfig:"SEND_BUFFER" default:"64"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.PresenceTTL < 2*cfg.HeartbeatInterval {
		return nil, fmt.Errorf("PRESENCE_TTL (%s) must be at least twice HEARTBEAT_INTERVAL (%s)",
			cfg.PresenceTTL, cfg.HeartbeatInterval)
	}
	if cfg.SendBuffer < 1 {
		return nil, fmt.Errorf("SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	return &cfg, nil
}

// GetCORSOrigins returns CORS origins as a comma-separated string.
func (c *Config) GetCORSOrigins() string {
	if c.IsProduction() && len(c.AllowedOrigins) > 0 && c.AllowedOrigins[0] != "*" {
		return strings.Join(c.AllowedOrigins, ",")
	}
	return "*"
}

// RedisAddr returns the host:port address of the Redis backbone.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// IsDevelopment returns true if environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
