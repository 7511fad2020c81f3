package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CURRENCY", "")
	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	t.Setenv("DATABASE_URL", "postgres://shop@localhost/shop")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "store")
	t.Setenv("DB_PORT", "")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Contains(t, cfg.DatabaseURL, "host=db")
	assert.Contains(t, cfg.DatabaseURL, "port=5432")
}

func TestLoad_IgnoresGarbage(t *testing.T) {
	t.Setenv("IDEMPOTENCY_TTL", "soon")
	t.Setenv("LOW_STOCK_THRESHOLD", "-4")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
}
