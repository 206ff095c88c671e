// Package config loads the service settings from the environment.
package config

import (
	"fmt"
	"time"

	"accounts/internal/database"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort string

	DatabaseDriver string
	DatabaseDSN    string

	AdminEmail    string
	AdminPassword string

	BcryptCost           int
	SessionSigningSecret string

	// RabbitMQURL enables cross-instance cache invalidation when set.
	RabbitMQURL string

	// RedisAddr switches the view cache from memory to Redis when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", database.DriverSQLite)
	v.SetDefault("DATABASE_DSN", "accounts.db")
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("SESSION_SIGNING_SECRET", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		DatabaseDriver:       v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		AdminEmail:           v.GetString("ADMIN_EMAIL"),
		AdminPassword:        v.GetString("ADMIN_PASSWORD"),
		BcryptCost:           v.GetInt("BCRYPT_COST"),
		SessionSigningSecret: v.GetString("SESSION_SIGNING_SECRET"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		CacheTTL:             v.GetDuration("CACHE_TTL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q: want %q or %q", c.DatabaseDriver, database.DriverSQLite, database.DriverPostgres)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CACHE_TTL %s: must not be negative", c.CacheTTL)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid REDIS_DB %d", c.RedisDB)
	}
	return nil
}
