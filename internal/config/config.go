package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Google Sheets
	SpreadsheetID         string
	GoogleCredentialsFile string
	SheetsTimeout         time.Duration

	// Twilio WhatsApp channel
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioWebhookSecret string
	TwilioSendAttempts  int
	ChannelPrefix       string
	CountryCode         string

	// Survey behaviour
	SurveyConfigFile  string
	BroadcastInterval time.Duration
	CloseOnce         bool

	// Optional Redis cache for worksheet reads
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	TableCacheTTL time.Duration

	AdminJWTSecret string

	// Completion notices
	NotifyEmail       string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "5000"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		SheetsTimeout:         getEnvAsDuration("SHEETS_TIMEOUT", 15*time.Second),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioSendAttempts:  getEnvAsInt("TWILIO_SEND_ATTEMPTS", 3),
		ChannelPrefix:       strings.ToLower(strings.TrimSpace(getEnv("CHANNEL_PREFIX", "whatsapp"))),
		CountryCode:         strings.TrimPrefix(strings.TrimSpace(getEnv("COUNTRY_CODE", "91")), "+"),

		SurveyConfigFile:  getEnv("SURVEY_CONFIG_FILE", ""),
		BroadcastInterval: getEnvAsDuration("BROADCAST_INTERVAL", 0),
		CloseOnce:         getEnvAsBool("CLOSE_ONCE", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		TableCacheTTL: getEnvAsDuration("TABLE_CACHE_TTL", 0),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Survey Bot"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
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
