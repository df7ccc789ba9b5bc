// Package config loads process configuration from environment variables and
// an optional config file. A configuration error here is the only fatal error
// surface in the module; everything downstream degrades into per-ingredient
// failures instead.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tunables for a resolution process.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Extract ExtractConfig `mapstructure:"extract"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Resolve ResolveConfig `mapstructure:"resolve"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CatalogConfig identifies the catalog search endpoint. The endpoint is
// injected configuration; nothing in the core hard-codes it.
type CatalogConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	SearchPath string `mapstructure:"search_path"`
	Store      string `mapstructure:"store"`
}

// FetchConfig controls the catalog HTTP client.
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Jitter            float64       `mapstructure:"jitter"`
	TLSProfile        string        `mapstructure:"tls_profile"`
}

// ExtractConfig bounds result extraction.
type ExtractConfig struct {
	MaxProducts int `mapstructure:"max_products"`
}

// PlanConfig controls search term planning.
type PlanConfig struct {
	MaxTerms int `mapstructure:"max_terms"`
	// FailOpen keeps planning from the ingredient's own names when the term
	// suggester is unavailable. This is the documented default, not an accident.
	FailOpen bool `mapstructure:"fail_open"`
}

// ResolveConfig controls batch orchestration.
type ResolveConfig struct {
	Workers       int     `mapstructure:"workers"`
	DefaultBudget float64 `mapstructure:"default_budget"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads configuration from an optional forager.yaml and FORAGER_*
// environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("forager")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/forager/")

	v.SetEnvPrefix("FORAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file present; environment variables and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching files or the
// environment. Useful for tests and embedded use.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://www.bringo.ro")
	v.SetDefault("catalog.search_path", "/ro/search")
	v.SetDefault("catalog.store", "carrefour_park_lake")

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("fetch.max_concurrent", 5)
	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.jitter", 0.3)
	v.SetDefault("fetch.tls_profile", "chrome")

	v.SetDefault("extract.max_products", 8)

	v.SetDefault("plan.max_terms", 5)
	v.SetDefault("plan.fail_open", true)

	v.SetDefault("resolve.workers", 5)
	v.SetDefault("resolve.default_budget", 100.0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}

// Validate checks configuration invariants. An error here should be treated
// as fatal by the caller.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("catalog.base_url %q is not an absolute URL", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Store == "" {
		return fmt.Errorf("catalog.store must be set")
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.MaxConcurrent <= 0 {
		return fmt.Errorf("fetch.max_concurrent must be positive, got %d", cfg.Fetch.MaxConcurrent)
	}
	if cfg.Fetch.Jitter < 0 || cfg.Fetch.Jitter > 1 {
		return fmt.Errorf("fetch.jitter must be within [0,1], got %f", cfg.Fetch.Jitter)
	}
	if cfg.Extract.MaxProducts <= 0 {
		return fmt.Errorf("extract.max_products must be positive, got %d", cfg.Extract.MaxProducts)
	}
	if cfg.Plan.MaxTerms <= 0 {
		return fmt.Errorf("plan.max_terms must be positive, got %d", cfg.Plan.MaxTerms)
	}
	if cfg.Resolve.Workers <= 0 {
		return fmt.Errorf("resolve.workers must be positive, got %d", cfg.Resolve.Workers)
	}
	return nil
}
