package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Search   SearchConfig   `mapstructure:"search"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Currency CurrencyConfig `mapstructure:"currency"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisHost     string        `mapstructure:"redis_host"`
	RedisPort     string        `mapstructure:"redis_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// NATSConfig is optional; without a URL booking outcomes are only logged.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type SearchConfig struct {
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
	ReadyPolicy    string        `mapstructure:"ready_policy"`
}

type LedgerConfig struct {
	RPS            float64       `mapstructure:"rps"`
	Burst          int           `mapstructure:"burst"`
	Latency        time.Duration `mapstructure:"latency"`
	ResultCapacity int           `mapstructure:"result_capacity"`
}

type CurrencyConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Decimals int    `mapstructure:"decimals"`
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"server.port":            "PORT",
	"log.level":              "LOG_LEVEL",
	"log.format":             "LOG_FORMAT",
	"cache.enabled":          "CACHE_ENABLED",
	"cache.redis_host":       "REDIS_HOST",
	"cache.redis_port":       "REDIS_PORT",
	"cache.redis_password":   "REDIS_PASSWORD",
	"cache.redis_db":         "REDIS_DB",
	"cache.ttl":              "REDIS_TTL",
	"nats.url":               "NATS_URL",
	"nats.subject":           "NATS_SUBJECT",
	"search.resolve_timeout": "SEARCH_RESOLVE_TIMEOUT",
	"search.wait_timeout":    "SEARCH_WAIT_TIMEOUT",
	"search.ready_policy":    "SEARCH_READY_POLICY",
	"ledger.rps":             "LEDGER_RPS",
	"ledger.burst":           "LEDGER_BURST",
	"ledger.latency":         "LEDGER_LATENCY",
	"ledger.result_capacity": "LEDGER_RESULT_CAPACITY",
	"currency.symbol":        "CURRENCY_SYMBOL",
	"currency.decimals":      "CURRENCY_DECIMALS",
}

// Load reads defaults, an optional config.yaml and environment variables,
// in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_host", "localhost")
	v.SetDefault("cache.redis_port", "6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "flights.bookings.completed")
	v.SetDefault("search.resolve_timeout", 10*time.Second)
	v.SetDefault("search.wait_timeout", 3*time.Second)
	v.SetDefault("search.ready_policy", "settled")
	v.SetDefault("ledger.rps", 50.0)
	v.SetDefault("ledger.burst", 100)
	v.SetDefault("ledger.latency", 100*time.Millisecond)
	v.SetDefault("ledger.result_capacity", 20)
	v.SetDefault("currency.symbol", "ETH")
	v.SetDefault("currency.decimals", 18)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port == "" {
		errs = append(errs, "server.port is required")
	}
	if c.Cache.Enabled && (c.Cache.RedisHost == "" || c.Cache.RedisPort == "") {
		errs = append(errs, "cache.redis_host and cache.redis_port are required when the cache is enabled")
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if c.Search.ResolveTimeout <= 0 {
		errs = append(errs, "search.resolve_timeout must be positive")
	}
	if c.Search.WaitTimeout <= 0 {
		errs = append(errs, "search.wait_timeout must be positive")
	}
	switch strings.ToLower(c.Search.ReadyPolicy) {
	case "settled", "dispatch":
	default:
		errs = append(errs, fmt.Sprintf("search.ready_policy must be settled or dispatch, got %q", c.Search.ReadyPolicy))
	}
	if c.Ledger.RPS <= 0 {
		errs = append(errs, "ledger.rps must be positive")
	}
	if c.Ledger.Burst <= 0 {
		errs = append(errs, "ledger.burst must be positive")
	}
	if c.Ledger.ResultCapacity <= 0 {
		errs = append(errs, "ledger.result_capacity must be positive")
	}
	if c.Currency.Decimals < 0 || c.Currency.Decimals > 19 {
		errs = append(errs, fmt.Sprintf("currency.decimals must be 0-19, got %d", c.Currency.Decimals))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
