package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelsec/sentinel/pkg/jwtx"
)

// devFallbackSecret keeps local development friction-free. Validate rejects
// it outside the dev environment.
const devFallbackSecret = "dev-only-insecure-secret"

type Config struct {
	JWTSecret        string        // Shared HS256 secret (required outside dev)
	Issuer           string        // Issuer claim for tokens (default: sentinel)
	AccessTTL        time.Duration // Access-token lifetime (default: 30m)
	RefreshTTL       time.Duration // Refresh-token lifetime (default: 168h)
	BcryptCost       int           // Password hashing cost (default: 12)
	MaxLoginAttempts int           // Same-day failure threshold (default: 5)

	LatencyWindow     int     // Latency window capacity (default: 100)
	SLAThresholdMs    float64 // SLA threshold in milliseconds (default: 50)
	BaselineLatencyMs float64 // Baseline for impact percentage (default: 2400)

	CORSOrigins  []string // Allowed dashboard origins
	DatabaseFile string   // Path to SQLite database file (default: ./sentinel.db)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		JWTSecret:        getEnvOrDefault("SENTINEL_JWT_SECRET", devFallbackSecret),
		Issuer:           getEnvOrDefault("SENTINEL_ISSUER", "sentinel"),
		AccessTTL:        getEnvDurationOrDefault("SENTINEL_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:       getEnvDurationOrDefault("SENTINEL_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		BcryptCost:       getEnvIntOrDefault("SENTINEL_BCRYPT_COST", 12),
		MaxLoginAttempts: getEnvIntOrDefault("SENTINEL_MAX_LOGIN_ATTEMPTS", 5),

		LatencyWindow:     getEnvIntOrDefault("SENTINEL_LATENCY_WINDOW", 100),
		SLAThresholdMs:    getEnvFloatOrDefault("SENTINEL_SLA_THRESHOLD_MS", 50),
		BaselineLatencyMs: getEnvFloatOrDefault("SENTINEL_BASELINE_LATENCY_MS", 2400),

		DatabaseFile: getEnvOrDefault("SENTINEL_DATABASE_FILE", "sentinel.db"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if origins := os.Getenv("SENTINEL_CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

// Validate rejects configurations that must never reach a shared environment.
// The dev fallback secret outside dev is the one unforgivable case.
func (c Config) Validate() error {
	if c.Env != "dev" && c.JWTSecret == devFallbackSecret {
		return errors.New("SENTINEL_JWT_SECRET must be set outside the dev environment")
	}
	if c.JWTSecret == "" {
		return errors.New("SENTINEL_JWT_SECRET must not be empty")
	}
	if c.LatencyWindow <= 0 {
		return errors.New("SENTINEL_LATENCY_WINDOW must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return errors.New("SENTINEL_MAX_LOGIN_ATTEMPTS must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
