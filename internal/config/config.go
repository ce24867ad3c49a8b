package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"PARKHUB_HTTP_PORT"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"PARKHUB_POSTGRES_DSN"`
}

// RedisConfig holds the optional active-booking cache settings. An empty Addr
// disables the cache entirely.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"PARKHUB_REDIS_ADDR"`
	Password string `yaml:"password" env:"PARKHUB_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PARKHUB_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"PARKHUB_REDIS_TTL"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	Secret string `yaml:"secret" env:"PARKHUB_AUTH_SECRET"`
}

// Config defines parkhub service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Load reads configuration from YAML plus environment overrides.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port: "8080",
		},
		Redis: RedisConfig{
			TTL: 86400,
		},
	}

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return nil, errors.New("config: auth secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CacheEnabled reports whether the redis cache is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// ActiveBookingTTL returns the cache TTL as a duration.
func (c *Config) ActiveBookingTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
