package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, uint16(6379), cfg.RedisPort)
	assert.Equal(t, "ordercast_db", cfg.PostgresDb)
	assert.Equal(t, 24*time.Hour, cfg.JwtTTL)
	assert.Equal(t, 45*time.Minute, cfg.DeliveryOverdueAfter)
	assert.Equal(t, uint16(8086), cfg.HttpServerPort)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("JWT_SECRET", "another_secret")
	t.Setenv("DELIVERY_OVERDUE_AFTER", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(6380), cfg.RedisPort)
	assert.Equal(t, "another_secret", cfg.JwtSecret)
	assert.Equal(t, 30*time.Minute, cfg.DeliveryOverdueAfter)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadConfig()
	assert.Error(t, err)
}
