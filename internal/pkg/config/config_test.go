package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SIM_INITIAL_DELAY", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "none", cfg.EventsBroker)
	assert.Equal(t, 2*time.Second, cfg.SimInitialDelay)
	assert.Equal(t, 5*time.Second, cfg.SimMinStepDelay)
	assert.Equal(t, 15*time.Second, cfg.SimMaxStepDelay)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("SIM_MIN_STEP_DELAY", "250ms")
	t.Setenv("PAYMENT_MAX_AMOUNT", "50000")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "redis", cfg.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.SimMinStepDelay)
	assert.Equal(t, int64(50000), cfg.PaymentMaxAmount)
	assert.True(t, cfg.TracingEnabled)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SIM_MAX_STEP_DELAY", "soon")
	t.Setenv("PAYMENT_MAX_AMOUNT", "lots")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 15*time.Second, cfg.SimMaxStepDelay)
	assert.Zero(t, cfg.PaymentMaxAmount)
	assert.False(t, cfg.TracingEnabled)
}
