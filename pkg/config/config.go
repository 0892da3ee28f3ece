package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. It is built once in main and
// passed into the services that need it; nothing reads env vars after startup.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (token store, rate limiter)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Server
	ServerPort string
	ClientURL  string

	// JWT
	JWTSecret  string
	SessionTTL time.Duration

	// Reset token / OTP windows
	ResetTokenTTL   time.Duration // logical expiry, checked at consume time
	TokenCleanupTTL time.Duration // redis key TTL, bounds storage growth

	// SMTP mail
	MailHost     string
	MailPort     int
	MailSender   string
	MailPassword string

	// OneSignal push
	OneSignalAppID  string
	OneSignalAPIKey string

	// DeepSeek / OpenAI-compatible translation
	OpenAIAPIKey string

	// Environment
	Environment string // "development", "production"
}

// LoadConfig reads configuration from the environment with defaults.
func LoadConfig() *Config {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "veshop_user"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "veshop"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		ClientURL:  getEnv("CLIENT_URL", "http://localhost:3009"),

		JWTSecret:  getEnv("JWT_SECRET", "veshop-secret-key"),
		SessionTTL: getEnvDuration("SESSION_TTL", 5*24*time.Hour),

		ResetTokenTTL:   getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		TokenCleanupTTL: getEnvDuration("TOKEN_CLEANUP_TTL", 24*time.Hour),

		MailHost:     getEnv("MAIL_HOST", ""),
		MailPort:     getEnvInt("MAIL_PORT", 587),
		MailSender:   getEnv("MAIL_SENDER_ADDRESS", ""),
		MailPassword: getEnv("MAIL_PASSWORD", ""),

		OneSignalAppID:  getEnv("ONESIGNAL_APP_ID", ""),
		OneSignalAPIKey: getEnv("ONESIGNAL_REST_API_KEY", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	log.Println("⚙️ Configuration loaded:")
	log.Printf("   DB: %s@%s:%s/%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	log.Printf("   Redis: %s", cfg.RedisAddr)
	log.Printf("   Server Port: %s", cfg.ServerPort)
	log.Printf("   Mail Sender: %s", maskString(cfg.MailSender))
	log.Printf("   Environment: %s", cfg.Environment)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// maskString hides the middle of a secret (email@domain.com -> em***.com).
func maskString(s string) string {
	if len(s) < 4 {
		return "***"
	}
	if len(s) < 8 {
		return s[:2] + "***"
	}
	return s[:2] + "***" + s[len(s)-4:]
}

// IsDevelopment reports whether this is a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether this is a production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasMailConfig reports whether SMTP delivery is configured.
func (c *Config) HasMailConfig() bool {
	return c.MailHost != "" && c.MailSender != ""
}

// HasOneSignalConfig reports whether push notifications are configured.
func (c *Config) HasOneSignalConfig() bool {
	return c.OneSignalAppID != "" && c.OneSignalAPIKey != ""
}
