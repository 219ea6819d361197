package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()
	assert.Equal(t, 5, cfg.Order.MinAddressLength)
	assert.True(t, decimal.NewFromInt(1).Equal(cfg.Order.CreditsPerOrder))
	assert.Equal(t, "52", cfg.Order.PhonePrefix)
	assert.Equal(t, 3*time.Second, cfg.Postgres.LockTimeout)
	assert.True(t, decimal.NewFromInt(1).Equal(cfg.Post.CreditsPerPost))
	assert.Equal(t, 2000, cfg.Post.MaxContentLength)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_LOCK_TIMEOUT", "750ms")
	t.Setenv("REQUEST_TIMEOUT", "30")
	t.Setenv("ORDER_CREDITS_PER_ORDER", "0.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CATALOG_CACHE_TTL", "nonsense")

	cfg := LoadEnv()
	assert.Equal(t, 750*time.Millisecond, cfg.Postgres.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "0.5", cfg.Order.CreditsPerOrder.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
}
