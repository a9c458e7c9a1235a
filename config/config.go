package config

import (
	"os"
	"strconv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port         string
	DatabaseDSN  string
	JWTSecret    string
	StripeKey    string
	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string
	AllowOrigins string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		DatabaseDSN:  getEnv("DATABASE_DSN", "./sparkledash.db"),
		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		StripeKey:    os.Getenv("STRIPE_SECRET_KEY"),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPEmail:    os.Getenv("SMTP_AUTH_MAIL"),
		SMTPPassword: os.Getenv("SMTP_AUTH_PASSWORD"),
		AllowOrigins: getEnv("ALLOW_ORIGINS", "http://127.0.0.1:5173"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
