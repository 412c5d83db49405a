package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Document store (DynamoDB) tables
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BookingsTable       string
	PatientsTable       string
	ProfessionalsTable  string
	ServicesTable       string
	SettingsTable       string
	ChatContextTable    string

	// Tiered cache
	CacheServiceURL    string
	CacheServiceAPIKey string
	CacheTimeout       time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTLS           bool

	// Outbound messaging gateway
	MessagingBaseURL  string
	MessagingAPIKey   string
	MessagingInstance string
	ChatWebhookToken  string

	// Reminder dispatcher
	ReminderSweepInterval time.Duration
	ReminderSweepEnabled  bool

	// Conversation flow
	ClinicTimezone string

	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BookingsTable:       getEnv("BOOKINGS_TABLE", "bookings"),
		PatientsTable:       getEnv("PATIENTS_TABLE", "patients"),
		ProfessionalsTable:  getEnv("PROFESSIONALS_TABLE", "professionals"),
		ServicesTable:       getEnv("SERVICES_TABLE", "services"),
		SettingsTable:       getEnv("SETTINGS_TABLE", "tenant_settings"),
		ChatContextTable:    getEnv("CHAT_CONTEXT_TABLE", "chat_contexts"),

		CacheServiceURL:    strings.TrimRight(getEnv("CACHE_SERVICE_URL", ""), "/"),
		CacheServiceAPIKey: getEnv("CACHE_SERVICE_API_KEY", ""),
		CacheTimeout:       getEnvAsDuration("CACHE_TIMEOUT", 5*time.Second),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 1),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		MessagingBaseURL:  strings.TrimRight(getEnv("MESSAGING_BASE_URL", ""), "/"),
		MessagingAPIKey:   getEnv("MESSAGING_API_KEY", ""),
		MessagingInstance: getEnv("MESSAGING_INSTANCE", ""),
		ChatWebhookToken:  getEnv("CHAT_WEBHOOK_TOKEN", ""),

		ReminderSweepInterval: getEnvAsDuration("REMINDER_SWEEP_INTERVAL", 15*time.Minute),
		ReminderSweepEnabled:  getEnvAsBool("REMINDER_SWEEP_ENABLED", true),

		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/Sao_Paulo"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
