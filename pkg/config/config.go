package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	FrontendURL         string
	Currency            string
	StripeSecretKey     string
	StripeWebhookSecret string

	RedisURL       string
	IdempotencyTTL time.Duration

	S3Bucket        string
	S3PublicBaseURL string
	UploadURLExpiry time.Duration

	LowStockThreshold int

	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	return &Config{
		Env:                 getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "3000"),
		DatabaseURL:         databaseURL(),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              getDuration("JWT_TTL", 24*time.Hour),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		Currency:            getEnv("CURRENCY", "usd"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		RedisURL:            os.Getenv("REDIS_URL"),
		IdempotencyTTL:      getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:     os.Getenv("S3_PUBLIC_BASE_URL"),
		UploadURLExpiry:     getDuration("UPLOAD_URL_EXPIRY", 15*time.Minute),
		LowStockThreshold:   getInt("LOW_STOCK_THRESHOLD", 10),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
