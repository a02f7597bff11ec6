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

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret     string
	CORSAllowedOrigins string

	// Per-IP rate limit on the public chat routes; zero disables it
	ChatRateLimit float64
	ChatBurst     int

	// Clinic identity used in chat replies and notifications
	ClinicName  string
	ClinicEmail string
	ClinicPhone string

	// Operating schedule
	OpenHour         int
	CloseHour        int
	LunchStartHour   int
	LunchEndHour     int
	SlotIntervalMins int
	OpenDays         string
	MaxAdvanceDays   int
	SameDayLeadTime  time.Duration

	SessionTTL time.Duration

	// Gemini small-talk responder (optional)
	GeminiAPIKey  string
	GeminiModelID string

	// Email notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		ChatRateLimit: getEnvAsFloat("CHAT_RATE_LIMIT", 5),
		ChatBurst:     getEnvAsInt("CHAT_BURST", 10),

		ClinicName:  getEnv("CLINIC_NAME", "Pawbook Veterinary Clinic"),
		ClinicEmail: getEnv("CLINIC_EMAIL", ""),
		ClinicPhone: getEnv("CLINIC_PHONE", ""),

		OpenHour:         getEnvAsInt("CLINIC_OPEN_HOUR", 9),
		CloseHour:        getEnvAsInt("CLINIC_CLOSE_HOUR", 17),
		LunchStartHour:   getEnvAsInt("CLINIC_LUNCH_START_HOUR", 13),
		LunchEndHour:     getEnvAsInt("CLINIC_LUNCH_END_HOUR", 14),
		SlotIntervalMins: getEnvAsInt("CLINIC_SLOT_INTERVAL_MINS", 30),
		OpenDays:         getEnv("CLINIC_OPEN_DAYS", "1,2,3,4,5,6"),
		MaxAdvanceDays:   getEnvAsInt("CLINIC_MAX_ADVANCE_DAYS", 90),
		SameDayLeadTime:  getEnvAsDuration("CLINIC_SAME_DAY_LEAD_TIME", 30*time.Minute),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Pawbook"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Pawbook"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// OpenWeekdays parses OpenDays into weekday numbers (0=Sunday .. 6=Saturday).
// Malformed entries are skipped; an empty result means every day is closed.
func (c *Config) OpenWeekdays() []time.Weekday {
	parts := strings.Split(c.OpenDays, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
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

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
