package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, ":5000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 1500*time.Millisecond, cfg.PlaceholderDelay)
	assert.Equal(t, 2*time.Minute, cfg.SubmitTimeout)
	assert.Equal(t, "KrizPay", cfg.UPI.PayeeName)
	assert.False(t, cfg.HasProvider())
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFrom(newViper(t, `
log_level: debug
provider:
  rpc_url: https://polygon-rpc.com
  private_key: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
  chain_id: 137
  selected: true
rates:
  eth: 250000
  matic: 80.5
store:
  driver: SQLITE
  dsn: sqlite:///tmp/krizpay.db
upi:
  settlement_address: "0x00000000000000000000000000000000000000bb"
submit_timeout: 30s
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HasProvider())
	assert.Equal(t, int64(137), cfg.Provider.ChainID)
	assert.True(t, cfg.Provider.Selected)
	assert.Equal(t, 80.5, cfg.Rates["matic"])
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad level":        "log_level: loud",
		"bad driver":       "store:\n  driver: mongo",
		"http without url": "store:\n  driver: http",
		"postgres no dsn":  "store:\n  driver: postgres",
		"negative rate":    "rates:\n  eth: -1",
		"bad settlement":   "upi:\n  settlement_address: shop@okaxis",
		"key without rpc":  "provider:\n  private_key: abc",
		"negative timeout": "submit_timeout: -1s",
	}
	for name, yaml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(newViper(t, yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KRIZPAY_STORE_DRIVER", "http")
	t.Setenv("KRIZPAY_STORE_URL", "http://localhost:5000")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Store.Driver)
	assert.Equal(t, "http://localhost:5000", cfg.Store.URL)
}
