package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskdock/taskdock/internal/service"
	"github.com/taskdock/taskdock/pkg/jwtx"
)

type Config struct {
	TokenSecret string // Required: HMAC signing secret, at least 32 bytes
	Issuer      string // Optional: issuer claim for tokens (default: taskdock)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 30m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 168h)

	BcryptCost        int           // Optional: bcrypt work factor (default: 12)
	PasswordMinLength int           // Optional: minimum password length (default: 8)
	LockoutThreshold  int           // Optional: failed logins before lockout (default: 5)
	LockoutDuration   time.Duration // Optional: lockout window (default: 30m)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./taskdock.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Lockout cleanup interval (default: 15m)
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over .env entries.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		Issuer:      getEnvOrDefault("TOKEN_ISSUER", "taskdock"),

		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		BcryptCost:        getEnvIntOrDefault("BCRYPT_COST", 12),
		PasswordMinLength: getEnvIntOrDefault("PASSWORD_MIN_LENGTH", service.DefaultPasswordMinLength),
		LockoutThreshold:  getEnvIntOrDefault("LOCKOUT_THRESHOLD", service.DefaultLockoutThreshold),
		LockoutDuration:   getEnvDurationOrDefault("LOCKOUT_DURATION", service.DefaultLockoutDuration),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "taskdock.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 15*time.Minute),
	}

	if cfg.TokenSecret == "" {
		return cfg, errors.New("TOKEN_SECRET is required")
	}
	if len(cfg.TokenSecret) < jwtx.MinSecretBytes {
		return cfg, errors.New("TOKEN_SECRET must be at least 32 bytes")
	}

	return cfg, nil
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Parses as a duration string ("30m", "1h"); bare integers are taken
	// as minutes.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
