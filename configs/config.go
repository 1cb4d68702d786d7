package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	StorageDriver   string
	DatabaseURL     string
	DatabaseMaxConn int

	JWTSecret      string
	InternalAPIKey string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string
	GatewayTimeout    time.Duration

	DefaultConsultationFee float64
	UserServiceURL         string
	UserLookupTimeout      time.Duration
	ConsultationServiceURL string

	EventBroker       string
	EventPollInterval time.Duration
	EventBatchSize    int
	EventMaxAttempts  int
	EventRetention    time.Duration
	ConsultationGroup string
	NotificationGroup string

	BackgroundWorkers     int
	BackgroundQueueSize   int
	BackgroundTaskTimeout time.Duration

	StaleOrderTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver:   getEnv("STORAGE_DRIVER", "postgres"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseMaxConn: getEnvAsInt("DB_MAX_CONN", 10),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayBaseURL:   getEnv("RAZORPAY_API_BASE_URL", "https://api.razorpay.com/v1"),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "INR"),
		GatewayTimeout:    getEnvAsDuration("GATEWAY_TIMEOUT", 3*time.Second),

		DefaultConsultationFee: getEnvAsFloat("DEFAULT_CONSULTATION_FEE", 500.0),
		UserServiceURL:         getEnv("USER_SERVICE_URL", ""),
		UserLookupTimeout:      getEnvAsDuration("USER_LOOKUP_TIMEOUT", 2*time.Second),
		ConsultationServiceURL: getEnv("CONSULTATION_SERVICE_URL", ""),

		EventBroker:       getEnv("EVENT_BROKER", "postgres"),
		EventPollInterval: getEnvAsDuration("EVENT_POLL_INTERVAL", time.Second),
		EventBatchSize:    getEnvAsInt("EVENT_BATCH_SIZE", 50),
		EventMaxAttempts:  getEnvAsInt("EVENT_MAX_ATTEMPTS", 5),
		EventRetention:    getEnvAsDuration("EVENT_RETENTION", 7*24*time.Hour),
		ConsultationGroup: getEnv("CONSULTATION_GROUP", "consultation-group"),
		NotificationGroup: getEnv("NOTIFICATION_GROUP", "notification-group"),

		BackgroundWorkers:     getEnvAsInt("BACKGROUND_WORKERS", 4),
		BackgroundQueueSize:   getEnvAsInt("BACKGROUND_QUEUE_SIZE", 128),
		BackgroundTaskTimeout: getEnvAsDuration("BACKGROUND_TASK_TIMEOUT", 10*time.Second),

		StaleOrderTTL: getEnvAsDuration("STALE_ORDER_TTL", 24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.StorageDriver)
	}

	switch c.EventBroker {
	case "postgres":
		if c.StorageDriver != "postgres" {
			return fmt.Errorf("EVENT_BROKER=postgres requires STORAGE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("EVENT_BROKER must be postgres or memory, got %q", c.EventBroker)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RazorpayKeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}
	if c.DefaultConsultationFee <= 0 {
		return fmt.Errorf("DEFAULT_CONSULTATION_FEE must be positive")
	}
	if c.BackgroundWorkers < 1 || c.BackgroundQueueSize < 1 {
		return fmt.Errorf("BACKGROUND_WORKERS and BACKGROUND_QUEUE_SIZE must be at least 1")
	}
	if c.EventMaxAttempts < 1 {
		return fmt.Errorf("EVENT_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
