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

	// Admin surface. The shared passphrase is exchanged for a short-lived
	// HMAC JWT; it is an authorization stand-in, not real authentication.
	AdminPassphrase string
	AdminJWTSecret  string
	AdminTokenTTL   time.Duration

	// Office identity used in notification messages.
	OfficeName    string
	OfficePhone   string
	OfficeAddress string
	Timezone      string

	// WhatsApp delivery: "deeplink" builds wa.me links, "cloud-api" posts to
	// the Business Cloud API with a bearer token.
	WhatsAppMode          string
	WhatsAppCountryPrefix string
	WhatsAppAPIBaseURL    string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string

	// SendGrid email configuration (optional patient confirmations).
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Booking rules.
	BookingLeadTime time.Duration
	SlotStride      time.Duration

	// Public booking endpoint rate limit; zero disables it.
	BookingRateLimit float64
	BookingBurst     int

	// Reminder worker.
	RemindersEnabled bool
	ReminderInterval time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminPassphrase: getEnv("ADMIN_PASSPHRASE", ""),
		AdminJWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
		AdminTokenTTL:   getEnvAsDuration("ADMIN_TOKEN_TTL", 8*time.Hour),

		OfficeName:    getEnv("OFFICE_NAME", "MV Consultorios"),
		OfficePhone:   getEnv("OFFICE_PHONE", ""),
		OfficeAddress: getEnv("OFFICE_ADDRESS", ""),
		Timezone:      getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),

		WhatsAppMode:          strings.ToLower(strings.TrimSpace(getEnv("WHATSAPP_MODE", "deeplink"))),
		WhatsAppCountryPrefix: getEnv("WHATSAPP_COUNTRY_PREFIX", "54"),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "MV Consultorios"),

		BookingLeadTime: getEnvAsDuration("BOOKING_LEAD_TIME", 30*time.Minute),
		SlotStride:      getEnvAsDuration("SLOT_STRIDE", 30*time.Minute),

		BookingRateLimit: getEnvAsFloat("BOOKING_RATE_LIMIT", 0),
		BookingBurst:     getEnvAsInt("BOOKING_BURST", 10),

		RemindersEnabled: getEnvAsBool("REMINDERS_ENABLED", false),
		ReminderInterval: getEnvAsDuration("REMINDER_INTERVAL", time.Hour),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

// getEnvAsInt retrieves an environment variable as an int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
