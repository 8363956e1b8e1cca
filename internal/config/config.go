package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the orchestration service.
type Config struct {
	HTTPPort      string
	JWTSecret     []byte
	CredentialKey string // 64 hex chars (AES-256) for the credential vault
	Database      DatabaseConfig
	Redis         RedisConfig
	ProviderCache ProviderCacheConfig
	Provider      ProviderConfig
	Usage         UsageConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ProviderCacheConfig holds settings for the tenant-scoped provider cache
type ProviderCacheConfig struct {
	TTL        time.Duration
	MaxTenants int
}

// ProviderConfig holds outbound provider call settings
type ProviderConfig struct {
	RequestTimeout time.Duration // Per-call timeout for provider requests
}

// UsageConfig holds settings for the async usage-event worker
type UsageConfig struct {
	QueueName    string
	BatchSize    int
	BatchTimeout time.Duration
	MaxRetries   int
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:      getEnvString("HTTP_PORT", "8080"),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		CredentialKey: os.Getenv("AI_CREDENTIAL_KEY"),
		Database: DatabaseConfig{
			URL:             getEnvString("DATABASE_URL", "postgres://postgres@localhost:5432/crm?sslmode=disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDR", ""),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		ProviderCache: ProviderCacheConfig{
			TTL:        getEnvDuration("PROVIDER_CACHE_TTL", 60*time.Second),
			MaxTenants: getEnvInt("PROVIDER_CACHE_MAX_TENANTS", 100),
		},
		Provider: ProviderConfig{
			RequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 45*time.Second),
		},
		Usage: UsageConfig{
			QueueName:    getEnvString("USAGE_QUEUE_NAME", "ai_usage"),
			BatchSize:    getEnvInt("USAGE_BATCH_SIZE", 100),
			BatchTimeout: getEnvDuration("USAGE_BATCH_TIMEOUT", 5*time.Second),
			MaxRetries:   getEnvInt("USAGE_MAX_RETRIES", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.CredentialKey == "" {
		return fmt.Errorf("AI_CREDENTIAL_KEY is required")
	}
	if len(c.CredentialKey) != 64 {
		return fmt.Errorf("AI_CREDENTIAL_KEY must be 64 hex characters (32 bytes), got %d", len(c.CredentialKey))
	}
	return nil
}
