package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fairdice/database"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr  string
	JWTSecret string

	// Settlement configuration
	StartingBalance      decimal.Decimal
	SettleMaxAttempts    int
	SettleRetryBaseDelay time.Duration
	StoreTimeout         time.Duration

	// Redis configuration; an empty address keeps account locks in-process
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AccountLockTTL time.Duration

	// NATS configuration; empty servers disables event export
	NATSServers       string
	NATSSubjectPrefix string

	// Metrics configuration
	MetricsEnabled        bool
	MetricsExporter       string // "console" or "none"
	MetricsExportInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads configuration from the environment without touching the global instance
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// RedisEnabled reports whether account locks are shared through Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// NATSEnabled reports whether committed events are exported to NATS
func (c *Config) NATSEnabled() bool {
	return c.NATSServers != ""
}

func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:  getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		NATSServers:       os.Getenv("NATS_SERVERS"),
		NATSSubjectPrefix: getEnvWithDefault("NATS_SUBJECT_PREFIX", "fairdice"),

		MetricsEnabled:  os.Getenv("METRICS_ENABLED") == "true",
		MetricsExporter: getEnvWithDefault("METRICS_EXPORTER", "console"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.StartingBalance, err = getDecimal("STARTING_BALANCE", "1000.00"); err != nil {
		return nil, err
	}
	if config.SettleMaxAttempts, err = getInt("SETTLE_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if config.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.SettleRetryBaseDelay, err = getDuration("SETTLE_RETRY_BASE_DELAY", 25*time.Millisecond); err != nil {
		return nil, err
	}
	if config.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if config.AccountLockTTL, err = getDuration("ACCOUNT_LOCK_TTL", 10*time.Second); err != nil {
		return nil, err
	}
	if config.MetricsExportInterval, err = getDuration("METRICS_EXPORT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.StartingBalance.IsNegative() {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if c.SettleMaxAttempts < 1 {
		return fmt.Errorf("SETTLE_MAX_ATTEMPTS must be at least 1")
	}
	switch c.MetricsExporter {
	case "console", "none":
	default:
		return fmt.Errorf("unknown METRICS_EXPORTER %q", c.MetricsExporter)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:              ":0",
		JWTSecret:             "test-secret",
		StartingBalance:       decimal.RequireFromString("1000.00"),
		SettleMaxAttempts:     3,
		SettleRetryBaseDelay:  time.Millisecond,
		StoreTimeout:          5 * time.Second,
		AccountLockTTL:        10 * time.Second,
		NATSSubjectPrefix:     "fairdice",
		MetricsExporter:       "none",
		MetricsExportInterval: time.Second,
		LogLevel:              "debug",
		LogFormat:             "text",
		Environment:           "test",
	}
}
