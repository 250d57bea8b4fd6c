package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8082", cfg.Port)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "localhost:6379", cfg.RedisAddr())
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 60*time.Second, cfg.PresenceTTL)
	require.Equal(t, 25*time.Second, cfg.HeartbeatInterval)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, "*", cfg.GetCORSOrigins())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("PRESENCE_TTL", "30s")
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "https://app.example.com,https://admin.example.com", cfg.GetCORSOrigins())
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 30*time.Second, cfg.PresenceTTL)
}

func TestLoadRejectsShortTTL(t *testing.T) {
	t.Setenv("PRESENCE_TTL", "20s")
	t.Setenv("HEARTBEAT_INTERVAL", "15s")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PRESENCE_TTL")
}
