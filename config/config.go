package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	MercadoPago MercadoPagoConfig
	Email       EmailConfig
	Pricing     PricingConfig
	Admin       AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. the hosted provider's pooler URL)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings (reminder job queue).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds admin session token settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// MercadoPagoConfig holds payment gateway credentials.
type MercadoPagoConfig struct {
	AccessToken   string
	WebhookSecret string // optional; signature checks are skipped when empty
	BaseURL       string
	TimeoutSec    int
	Description   string // charge description shown on the payer's statement
}

// EmailConfig holds SMTP settings for transactional mail.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SendTimeout int // seconds to wait for a send before reporting "not confirmed"
}

// PricingConfig holds the time-gated price tiers and the card surcharge.
// Injected into the pricing resolver so environments and tests override it explicitly.
type PricingConfig struct {
	EarlyPrice    float64
	RegularPrice  float64
	Deadline      time.Time // instant at which the regular tier starts
	CardSurcharge float64   // fractional rate, e.g. 0.05
	Currency      string
}

// AdminConfig seeds the initial administrator account.
type AdminConfig struct {
	Email    string
	Password string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	deadline, err := time.Parse(time.RFC3339, getEnv("PRICING_DEADLINE", "2026-05-01T00:00:00-05:00"))
	if err != nil {
		return nil, fmt.Errorf("parse PRICING_DEADLINE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/simposio?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "simposio"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:   getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("MERCADOPAGO_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			TimeoutSec:    getEnvInt("MERCADOPAGO_TIMEOUT_SEC", 10),
			Description:   getEnv("MERCADOPAGO_DESCRIPTION", "II Simposio Veterinario Internacional 2026 - Entrada"),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "II Simposio Veterinario Internacional 2026"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			SendTimeout: getEnvInt("EMAIL_SEND_TIMEOUT_SEC", 10),
		},
		Pricing: PricingConfig{
			EarlyPrice:    getEnvFloat("PRICING_EARLY", 250.00),
			RegularPrice:  getEnvFloat("PRICING_REGULAR", 350.00),
			Deadline:      deadline,
			CardSurcharge: getEnvFloat("PRICING_CARD_SURCHARGE", 0.05),
			Currency:      getEnv("PRICING_CURRENCY", "PEN"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}
	return cfg, nil
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}
