package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "esim")
	t.Setenv("DB_NAME", "esim")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CRON_SECRET", "cron")
	t.Setenv("MOBIMATTER_API_KEY", "key")
	t.Setenv("MOBIMATTER_MERCHANT_ID", "merchant")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 25.0, cfg.Pricing.MarginPercent)
	assert.Equal(t, "MNT", cfg.Pricing.RetailCurrency)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 3, cfg.Upstream.RetryAttempts)
	assert.Equal(t, 6*time.Hour, cfg.Worker.SyncInterval)
	assert.True(t, cfg.Worker.SyncEnabled)
	assert.True(t, cfg.MobiMatter.Enabled())
	assert.False(t, cfg.Airalo.Enabled())
}

func TestLoadRequiresAggregator(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MOBIMATTER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no aggregator configured")
}

func TestLoadRequiresCronSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CRON_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestParseRates(t *testing.T) {
	rates, err := parseRates("usd:3450, EUR:3700.5")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 3450, "EUR": 3700.5}, rates)

	_, err = parseRates("USD")
	assert.Error(t, err)

	_, err = parseRates("USD:-1")
	assert.Error(t, err)

	rates, err = parseRates("")
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestLoadCORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", " shop.esim.mn, ,localhost:5173 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"shop.esim.mn", "localhost:5173"}, cfg.CORSOrigins)
}
