package config

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "KAFKA_BROKERS", "STORE_DRIVER", "LOW_STOCK_THRESHOLD", "IDEMPOTENCY_TTL", "LOG_PRETTY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 5, cfg.LowStock)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.LogPretty)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("STORE_DRIVER", "memory")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.LowStock)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "many")
	t.Setenv("NOTIFIER_WORKERS", "-2")
	t.Setenv("IDEMPOTENCY_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 5, cfg.LowStock)
	assert.Equal(t, 8, cfg.NotifierWorkers)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}
