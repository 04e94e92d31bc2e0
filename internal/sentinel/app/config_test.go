package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, devFallbackSecret, cfg.JWTSecret)
	require.Equal(t, "sentinel", cfg.Issuer)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, 5, cfg.MaxLoginAttempts)
	require.Equal(t, 100, cfg.LatencyWindow)
	require.InDelta(t, 50.0, cfg.SLAThresholdMs, 0.001)
	require.InDelta(t, 2400.0, cfg.BaselineLatencyMs, 0.001)
	require.Equal(t, "sentinel.db", cfg.DatabaseFile)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SENTINEL_JWT_SECRET", "prod-secret")
	t.Setenv("SENTINEL_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SENTINEL_MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("SENTINEL_SLA_THRESHOLD_MS", "75.5")
	t.Setenv("SENTINEL_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()

	require.Equal(t, "prod-secret", cfg.JWTSecret)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 3, cfg.MaxLoginAttempts)
	require.InDelta(t, 75.5, cfg.SLAThresholdMs, 0.001)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 9090, cfg.Port)
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("SENTINEL_MAX_LOGIN_ATTEMPTS", "lots")
	t.Setenv("SENTINEL_SLA_THRESHOLD_MS", "fast")
	t.Setenv("PORT", "")

	cfg := LoadConfig()
	require.Equal(t, 5, cfg.MaxLoginAttempts)
	require.InDelta(t, 50.0, cfg.SLAThresholdMs, 0.001)
	require.Equal(t, 8080, cfg.Port)
}

func TestConfigValidate(t *testing.T) {
	base := LoadConfig()

	t.Run("dev fallback secret allowed in dev", func(t *testing.T) {
		cfg := base
		cfg.Env = "dev"
		require.NoError(t, cfg.Validate())
	})

	t.Run("dev fallback secret rejected in prod", func(t *testing.T) {
		cfg := base
		cfg.Env = "prod"
		require.Error(t, cfg.Validate())
	})

	t.Run("real secret accepted in prod", func(t *testing.T) {
		cfg := base
		cfg.Env = "prod"
		cfg.JWTSecret = "a-real-secret"
		require.NoError(t, cfg.Validate())
	})

	t.Run("invalid window rejected", func(t *testing.T) {
		cfg := base
		cfg.LatencyWindow = 0
		require.Error(t, cfg.Validate())
	})
}
