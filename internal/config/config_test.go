package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("INVOICE_MAX_ATTEMPTS", "7")

	cfg := Load()

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Invoice.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.Invoice.BaseBackoff)
	assert.Equal(t, "gopay", cfg.Midtrans.QRISAcquirer)
	assert.False(t, cfg.Redis.Enabled())
}

func TestAppConfigLocation(t *testing.T) {
	assert.Equal(t, "Asia/Jakarta", AppConfig{Timezone: "Asia/Jakarta"}.Location().String())
	assert.Equal(t, time.UTC, AppConfig{Timezone: "Not/AZone"}.Location())
}
