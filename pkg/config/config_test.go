package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Server.TrustProxyHeaders)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Bridge.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Bridge.RequestTTL)
	assert.True(t, cfg.Bridge.ReserveLiquidity)
	assert.Equal(t, []uint64{chain.Optimism, chain.Polygon, chain.Base, chain.Arbitrum}, cfg.Liquidity.PreferredChains)
	assert.Equal(t, OracleModeSimulated, cfg.Oracle.Mode)
	assert.False(t, cfg.Events.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Options().Addr())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  enabled: true
  host: db
  user: bridge
bridge:
  poll_interval: 5s
  request_ttl: 1h
  reserve_liquidity: false
liquidity:
  preferred_chains: [137]
chains:
  list:
    - id: 900
      name: Ledger
      family: account
      native_currency:
        symbol: LDG
        decimals: 8
oracle:
  mode: relay
  relay_url: http://relay:8545
events:
  redis_addr: redis:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5*time.Second, cfg.Bridge.PollInterval)
	assert.Equal(t, time.Hour, cfg.Bridge.RequestTTL)
	assert.False(t, cfg.Bridge.ReserveLiquidity)
	assert.Equal(t, []uint64{137}, cfg.Liquidity.PreferredChains)
	require.Len(t, cfg.Chains.List, 1)
	assert.Equal(t, chain.FamilyAccount, cfg.Chains.List[0].Family)
	assert.Equal(t, 8, cfg.Chains.List[0].NativeCurrency.Decimals)
	assert.Equal(t, OracleModeRelay, cfg.Oracle.Mode)
	assert.True(t, cfg.Events.Enabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("AUTH_OPERATOR_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.OperatorJWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown oracle mode":   "oracle:\n  mode: magic\n",
		"relay without url":     "oracle:\n  mode: relay\n",
		"evm without relay":     "oracle:\n  mode: evm\n",
		"rates above one":       "oracle:\n  confirm_rate: 0.8\n  fail_rate: 0.5\n",
		"negative ttl":          "bridge:\n  request_ttl: -1s\n",
		"zero poll interval":    "bridge:\n  poll_interval: 0s\n",
		"database without host": "database:\n  enabled: true\n  host: \"\"\n",
		"bad port":              "server:\n  port: 70000\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = NewLogger(LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}
