package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	PublicBaseURL  string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	CompanyName  string
	CompanyPhone string
	ServiceArea  string

	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioWebhookSecret string

	CalendlyAPIKey    string
	CalendlyEventType string
	BookingTimeout    time.Duration

	OpenRouterAPIKey string
	OpenRouterModel  string
	ModelTimeout     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	InboundQueueURL     string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmail     string
	OperatorPhone     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		CompanyName:  getEnv("COMPANY_NAME", "ABC Heating & Cooling"),
		CompanyPhone: getEnv("COMPANY_PHONE", "(248) 555-1234"),
		ServiceArea:  getEnv("SERVICE_AREA", "Rochester Hills, Troy, Auburn Hills, Bloomfield, Sterling Heights"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		CalendlyAPIKey:    getEnv("CALENDLY_API_KEY", ""),
		CalendlyEventType: getEnv("CALENDLY_EVENT_TYPE", ""),
		BookingTimeout:    getEnvAsDuration("BOOKING_TIMEOUT", 15*time.Second),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
		ModelTimeout:     getEnvAsDuration("MODEL_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		InboundQueueURL:     getEnv("INBOUND_QUEUE_URL", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Sidekick AI"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
		OperatorPhone:     getEnv("OPERATOR_PHONE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
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
