package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

// Oracle modes
const (
	OracleModeRelay     = "relay"
	OracleModeEVM       = "evm"
	OracleModeSimulated = "simulated"
)

// Config represents the bridge server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Liquidity  LiquidityConfig  `mapstructure:"liquidity"`
	Chains     ChainsConfig     `mapstructure:"chains"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Events     EventsConfig     `mapstructure:"events"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// RefreshInterval is how often pool gauges are recomputed.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// BridgeConfig contains request tracking settings
type BridgeConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	MaxConcurrentPolls int           `mapstructure:"max_concurrent_polls"`
	// RequestTTL of zero disables expiry.
	RequestTTL       time.Duration `mapstructure:"request_ttl"`
	ReserveLiquidity bool          `mapstructure:"reserve_liquidity"`
	SubmitTimeout    time.Duration `mapstructure:"submit_timeout"`
}

// LiquidityConfig contains pool settings
type LiquidityConfig struct {
	PreferredChains []uint64 `mapstructure:"preferred_chains"`
}

// ChainsConfig selects the chain catalog. Inline chains override catalog entries with the same id.
type ChainsConfig struct {
	CatalogFile string             `mapstructure:"catalog_file"`
	List        []chain.Descriptor `mapstructure:"list"`
}

// OracleConfig contains settings for submitting and observing bridge transactions
type OracleConfig struct {
	Mode          string        `mapstructure:"mode"`
	RelayURL      string        `mapstructure:"relay_url"`
	RelayAPIKey   string        `mapstructure:"relay_api_key"`
	RelayTimeout  time.Duration `mapstructure:"relay_timeout"`
	Confirmations uint64        `mapstructure:"confirmations"`
	// Simulated mode only.
	ConfirmRate float64 `mapstructure:"confirm_rate"`
	FailRate    float64 `mapstructure:"fail_rate"`
	Seed        int64   `mapstructure:"seed"`
}

// EventsConfig contains the Redis completion event publisher settings
type EventsConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Channel       string `mapstructure:"channel"`
}

// Enabled reports whether events should be published.
func (c *EventsConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// AuthConfig contains operator authentication settings
type AuthConfig struct {
	OperatorJWTSecret string `mapstructure:"operator_jwt_secret"`
	Issuer            string `mapstructure:"issuer"`
}

// RateLimitConfig contains per-client limits on mutating routes
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.trust_proxy_headers", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "bridge")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.refresh_interval", "30s")

	// Bridge defaults
	v.SetDefault("bridge.poll_interval", "30s")
	v.SetDefault("bridge.tick_interval", "1s")
	v.SetDefault("bridge.max_concurrent_polls", 8)
	v.SetDefault("bridge.request_ttl", "0s")
	v.SetDefault("bridge.reserve_liquidity", true)
	v.SetDefault("bridge.submit_timeout", "30s")

	// Liquidity defaults
	v.SetDefault("liquidity.preferred_chains", []uint64{
		chain.Optimism, chain.Polygon, chain.Base, chain.Arbitrum,
	})

	// Chains defaults
	v.SetDefault("chains.catalog_file", "")

	// Oracle defaults
	v.SetDefault("oracle.mode", OracleModeSimulated)
	v.SetDefault("oracle.relay_url", "")
	v.SetDefault("oracle.relay_api_key", "")
	v.SetDefault("oracle.relay_timeout", "15s")
	v.SetDefault("oracle.confirmations", 12)
	v.SetDefault("oracle.confirm_rate", 0.5)
	v.SetDefault("oracle.fail_rate", 0.05)
	v.SetDefault("oracle.seed", 0)

	// Events defaults
	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.redis_password", "")
	v.SetDefault("events.redis_db", 0)
	v.SetDefault("events.channel", "bridge:completed")

	// Auth defaults
	v.SetDefault("auth.operator_jwt_secret", "")
	v.SetDefault("auth.issuer", "crosschain-bridge")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
}

func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when the database is enabled")
	}
	if config.Bridge.PollInterval <= 0 {
		return fmt.Errorf("bridge.poll_interval must be positive")
	}
	if config.Bridge.RequestTTL < 0 {
		return fmt.Errorf("bridge.request_ttl must not be negative")
	}

	switch config.Oracle.Mode {
	case OracleModeRelay:
		if config.Oracle.RelayURL == "" {
			return fmt.Errorf("oracle.relay_url is required in relay mode")
		}
	case OracleModeEVM:
		if config.Oracle.RelayURL == "" {
			return fmt.Errorf("oracle.relay_url is required in evm mode for submissions")
		}
	case OracleModeSimulated:
		if config.Oracle.ConfirmRate < 0 || config.Oracle.FailRate < 0 ||
			config.Oracle.ConfirmRate+config.Oracle.FailRate > 1 {
			return fmt.Errorf("oracle.confirm_rate and oracle.fail_rate must be non-negative and sum to at most 1")
		}
	default:
		return fmt.Errorf("oracle.mode must be one of %s, %s, %s",
			OracleModeRelay, OracleModeEVM, OracleModeSimulated)
	}

	if config.RateLimit.RequestsPerSecond < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}

// Options converts the server settings for apphttp.ServeAndWait.
func (c *ServerConfig) Options() apphttp.ServerOptions {
	return apphttp.ServerOptions{
		Host:            c.Host,
		Port:            c.Port,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		IdleTimeout:     c.IdleTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}
