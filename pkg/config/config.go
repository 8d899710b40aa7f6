package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string

	// Email channel
	EmailEnabled bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration

	// Real-time channel
	RealtimeEnabled bool

	// Browser origins allowed on the HTTP and websocket surfaces. Empty means
	// same-origin only for websocket upgrades.
	AllowedOrigins []string

	// Housekeeping
	RetentionDays int
}

// Load reads the service configuration from the environment. A .env file, when
// present, is loaded first so its values are visible to every lookup below.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		EmailEnabled: getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("SMTP_PORT", "465"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "School Dashboard <noreply@school.com>"),
		SMTPTimeout:  time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 10)) * time.Second,

		RealtimeEnabled: getEnvBool("REALTIME_ENABLED", true),

		AllowedOrigins: splitOrigins(getEnv("CORS_ORIGIN", "")),

		RetentionDays: getEnvInt("NOTIFICATION_RETENTION_DAYS", 30),
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
