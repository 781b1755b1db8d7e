// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Environment names recognized by the TTL selection logic.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Hybrid pricing strategies (market vs. intrinsic reconciliation).
const (
	HybridFallback = "fallback"
	HybridAverage  = "average"
	HybridWeighted = "weighted"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// RegistryConfig holds pool/vault registry endpoint settings.
type RegistryConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// OracleConfig holds BTC oracle endpoint settings.
type OracleConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	StreamURL      string        `mapstructure:"stream_url"` // optional WS push feed
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// QuoteConfig holds the read-only remove-liquidity quote endpoint settings.
// When disabled, LP intrinsic valuation falls back to the geometric-mean
// supply estimate.
type QuoteConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PricingConfig holds price-engine parameters.
type PricingConfig struct {
	AnchorContractID      string   `mapstructure:"anchor_contract_id"`
	AnchorSymbol          string   `mapstructure:"anchor_symbol"`
	Stablecoins           []string `mapstructure:"stablecoins"`
	MaxPathHops           int      `mapstructure:"max_path_hops"`
	MaxPaths              int      `mapstructure:"max_paths"`
	HybridStrategy        string   `mapstructure:"hybrid_strategy"`
	MarketWeight          float64  `mapstructure:"market_weight"`
	ArbitrageThresholdPct float64  `mapstructure:"arbitrage_threshold_pct"`
	BatchSize             int      `mapstructure:"batch_size"`
	MinBulkEntries        int      `mapstructure:"min_bulk_entries"`
}

// MonitorConfig holds arbitrage monitor settings.
type MonitorConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Interval           time.Duration `mapstructure:"interval"`
	SignalThresholdPct float64       `mapstructure:"signal_threshold_pct"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// PriceCacheTTL returns the per-token and bulk price cache TTL for the
// configured environment: seconds in development, minutes in production.
func (c *Config) PriceCacheTTL() time.Duration {
	if c.App.Environment == EnvProduction {
		return 5 * time.Minute
	}
	return 10 * time.Second
}

// CalcCacheTTL returns the TTL for narrower internal calculation caches
// (graph snapshots, decimals lookups).
func (c *Config) CalcCacheTTL() time.Duration {
	if c.App.Environment == EnvProduction {
		return 60 * time.Second
	}
	return 5 * time.Second
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PRICED")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "PRICED_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "PRICED_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PRICED_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("registry.base_url", "PRICED_REGISTRY_URL", "REGISTRY_URL")
	v.BindEnv("oracle.base_url", "PRICED_ORACLE_URL", "ORACLE_URL")
	v.BindEnv("oracle.stream_url", "PRICED_ORACLE_STREAM_URL", "ORACLE_STREAM_URL")
	v.BindEnv("quote.base_url", "PRICED_QUOTE_URL", "QUOTE_URL")
	v.BindEnv("quote.enabled", "PRICED_QUOTE_ENABLED")

	v.BindEnv("pricing.anchor_contract_id", "PRICED_ANCHOR_CONTRACT_ID")
	v.BindEnv("pricing.hybrid_strategy", "PRICED_HYBRID_STRATEGY")
	v.BindEnv("pricing.arbitrage_threshold_pct", "PRICED_ARBITRAGE_THRESHOLD_PCT")

	v.BindEnv("telemetry.enabled", "PRICED_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PRICED_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PRICED_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "price-engine")
	v.SetDefault("app.environment", EnvDevelopment)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("registry.request_timeout", "5s")
	v.SetDefault("registry.requests_per_minute", 120)

	v.SetDefault("oracle.request_timeout", "5s")
	v.SetDefault("oracle.cache_ttl", "30s")

	v.SetDefault("quote.enabled", false)
	v.SetDefault("quote.request_timeout", "5s")

	v.SetDefault("pricing.anchor_contract_id",
		"SM3VDXK3WZZSA84XXFKAFAF15NNZX32CTSG82JFQ4.sbtc-token")
	v.SetDefault("pricing.anchor_symbol", "sBTC")
	v.SetDefault("pricing.stablecoins", []string{"USDA", "AEUSDC", "SUSDT", "USDH"})
	v.SetDefault("pricing.max_path_hops", 4)
	v.SetDefault("pricing.max_paths", 10)
	v.SetDefault("pricing.hybrid_strategy", HybridWeighted)
	v.SetDefault("pricing.market_weight", 0.7)
	v.SetDefault("pricing.arbitrage_threshold_pct", 5.0)
	v.SetDefault("pricing.batch_size", 10)
	v.SetDefault("pricing.min_bulk_entries", 5)

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval", "1m")
	v.SetDefault("monitor.signal_threshold_pct", 10.0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "price-engine")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if c.Quote.Enabled && c.Quote.BaseURL == "" {
		return fmt.Errorf("quote.base_url is required when quote.enabled")
	}
	if c.Pricing.AnchorContractID == "" {
		return fmt.Errorf("pricing.anchor_contract_id is required")
	}
	switch c.Pricing.HybridStrategy {
	case HybridFallback, HybridAverage, HybridWeighted:
	default:
		return fmt.Errorf("invalid pricing.hybrid_strategy: %s", c.Pricing.HybridStrategy)
	}
	if c.Pricing.MarketWeight < 0 || c.Pricing.MarketWeight > 1 {
		return fmt.Errorf("pricing.market_weight must be in [0,1]: %f", c.Pricing.MarketWeight)
	}
	if c.Pricing.ArbitrageThresholdPct <= 0 {
		return fmt.Errorf("pricing.arbitrage_threshold_pct must be positive")
	}
	if c.Pricing.MaxPathHops < 1 {
		return fmt.Errorf("pricing.max_path_hops must be at least 1")
	}
	if c.Pricing.BatchSize < 1 {
		return fmt.Errorf("pricing.batch_size must be at least 1")
	}
	return nil
}
