package config_test

import (
	"testing"
	"time"

	"accounts/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := config.FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.SessionSigningSecret)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost user=accounts dbname=accounts")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"unknown driver", map[string]any{"DATABASE_DRIVER": "mysql"}, "DATABASE_DRIVER"},
		{"empty dsn", map[string]any{"DATABASE_DSN": ""}, "DATABASE_DSN"},
		{"empty port", map[string]any{"APP_PORT": ""}, "APP_PORT"},
		{"negative ttl", map[string]any{"CACHE_TTL": "-1s"}, "CACHE_TTL"},
		{"negative redis db", map[string]any{"REDIS_DB": -1}, "REDIS_DB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromViper(newViper(tt.overrides))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
