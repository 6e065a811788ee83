package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Poll     PollConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	NewRelic NewRelicConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackendConfig holds Booking Store client configuration.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PollConfig holds the polling cadences. Defaults preserve behavioral
// parity with the frontend this gateway replaces: list views 5 s, rider
// tracking 3 s, driver tracking 10 s, live bookings 8 s.
type PollConfig struct {
	ListInterval           time.Duration
	RiderTrackingInterval  time.Duration
	DriverTrackingInterval time.Duration
	LiveInterval           time.Duration
	MaxBackoff             time.Duration
	NavigateDelay          time.Duration
	TrackingLockTTL        time.Duration
}

// AuthConfig holds session store configuration.
type AuthConfig struct {
	SessionFile string
}

// DatabaseConfig holds PostgreSQL configuration for the transition
// journal. The journal is disabled when Host is empty.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether the transition journal should run.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the transition stream configuration. The stream is
// disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether the transition stream should run.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BOOKING_STORE_URL", "http://localhost:9000"),
			Timeout: getDurationEnv("BOOKING_STORE_TIMEOUT", 10*time.Second),
		},
		Poll: PollConfig{
			ListInterval:           getDurationEnv("POLL_LIST_INTERVAL", 5*time.Second),
			RiderTrackingInterval:  getDurationEnv("POLL_RIDER_TRACKING_INTERVAL", 3*time.Second),
			DriverTrackingInterval: getDurationEnv("POLL_DRIVER_TRACKING_INTERVAL", 10*time.Second),
			LiveInterval:           getDurationEnv("POLL_LIVE_INTERVAL", 8*time.Second),
			MaxBackoff:             getDurationEnv("POLL_MAX_BACKOFF", 40*time.Second),
			NavigateDelay:          getDurationEnv("POLL_NAVIGATE_DELAY", 1750*time.Millisecond),
			TrackingLockTTL:        getDurationEnv("TRACKING_LOCK_TTL", 2*time.Hour),
		},
		Auth: AuthConfig{
			SessionFile: getEnv("SESSION_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bookingwatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "booking-transitions"),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "bookingwatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
