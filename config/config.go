package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the service needs.
type Config struct {
	PostgresURL      string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string
	PostgresMaxConns int
	PostgresMinConns int
	RedisAddr        string
	RedisPoolSize    int

	JWTSecret       string
	SuperAdminEmail string
	BaseURL         string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	ConfirmMaxAge   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// ResetRateLimit uses the limiter "<count>-<period>" notation,
	// e.g. "1-D" for one request per day per client address.
	ResetRateLimit string

	// OTLPEndpoint is the collector tracing spans are exported to.
	// Empty disables tracing.
	OTLPEndpoint string
	Environment  string
}

// LoadConfig reads the environment (optionally seeded from a .env file)
// and validates the settings the service cannot run without.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config := &Config{
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresSSLMode:  getEnvWithDefault("POSTGRES_SSLMODE", "prefer"),
		PostgresMaxConns: getIntWithDefault("POSTGRES_MAX_CONNS", 25),
		PostgresMinConns: getIntWithDefault("POSTGRES_MIN_CONNS", 5),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPoolSize:    getIntWithDefault("REDIS_POOL_SIZE", 10),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SuperAdminEmail:  os.Getenv("SUPER_ADMIN_EMAIL"),
		BaseURL:          getEnvWithDefault("BASE_URL", "http://localhost:8080"),
		AccessTokenTTL:   getDurationWithDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:  getDurationWithDefault("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		ResetTokenTTL:    getDurationWithDefault("RESET_TOKEN_TTL", 24*time.Hour),
		ConfirmMaxAge:    getDurationWithDefault("CONFIRM_MAX_AGE", time.Hour),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnvWithDefault("SMTP_FROM", "no-reply@scissor.local"),
		ResetRateLimit:   getEnvWithDefault("RESET_RATE_LIMIT", "1-D"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Environment:      getEnvWithDefault("ENV", "development"),
	}

	if portStr := os.Getenv("POSTGRES_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}
		config.PostgresPort = port
	} else {
		config.PostgresPort = 5432 // default PostgreSQL port
	}

	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		config.SMTPPort = port
	} else {
		config.SMTPPort = 587
	}

	// Validate database configuration
	if config.PostgresURL == "" {
		// If PostgresURL is not set, validate individual parameters
		if config.PostgresHost == "" || config.PostgresUser == "" || config.PostgresDB == "" {
			return nil, fmt.Errorf("either POSTGRES_URL or POSTGRES_HOST, POSTGRES_USER, and POSTGRES_DB must be set")
		}
		config.PostgresURL = buildPostgresURL(config)
	}
	if config.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR not set")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if config.SuperAdminEmail == "" {
		return nil, fmt.Errorf("SUPER_ADMIN_EMAIL not set")
	}

	return config, nil
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// buildPostgresURL constructs PostgreSQL connection URL from individual parameters
func buildPostgresURL(config *Config) string {
	password := ""
	if config.PostgresPassword != "" {
		password = ":" + config.PostgresPassword
	}

	return fmt.Sprintf("postgres://%s%s@%s:%d/%s?sslmode=%s",
		config.PostgresUser,
		password,
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresDB,
		config.PostgresSSLMode,
	)
}
