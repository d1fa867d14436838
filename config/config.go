package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Sources   SourcesConfig
	Scraper   ScraperConfig
	WebSearch WebSearchConfig
	Amazon    AmazonConfig
	Gemini    GeminiConfig
	Charts    ChartsConfig
	Cache     CacheConfig
	Quota     QuotaConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SourcesConfig drives the resolution pipeline. Priority is deliberately a
// config value: the preferred order has flipped between scraper-first and
// search-first before, and the pipeline must not hardcode either.
type SourcesConfig struct {
	Priority            []string      `mapstructure:"priority"`
	MaxProductsPerQuery int           `mapstructure:"max_products_per_query"`
	SearchResults       int           `mapstructure:"search_results"`
	ScraperTimeout      time.Duration `mapstructure:"scraper_timeout"`
	WebSearchTimeout    time.Duration `mapstructure:"websearch_timeout"`
	AITimeout           time.Duration `mapstructure:"ai_timeout"`
	AmazonTimeout       time.Duration `mapstructure:"amazon_timeout"`
}

// ScraperConfig holds scraper backend configuration
type ScraperConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Site    string `mapstructure:"site"`
}

// WebSearchConfig holds search backend configuration
type WebSearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// AmazonConfig holds the on-demand Amazon scraper configuration
type AmazonConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Gemini API configuration for the AI generator
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ChartsConfig holds the chart renderer service configuration
type ChartsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// QuotaConfig holds per-source daily budgets. Zero disables metering for
// that source.
type QuotaConfig struct {
	ScraperDaily   int `mapstructure:"scraper_daily"`
	WebSearchDaily int `mapstructure:"websearch_daily"`
	AIDaily        int `mapstructure:"ai_daily"`
	AmazonDaily    int `mapstructure:"amazon_daily"`
}

// validSources are the source ids allowed in sources.priority
var validSources = map[string]bool{
	"scraper":   true,
	"websearch": true,
	"ai":        true,
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/prompt2insight/")

	// Environment variable settings
	v.SetEnvPrefix("P2I")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Source pipeline defaults: cheapest source first, AI as last resort
	v.SetDefault("sources.priority", []string{"websearch", "scraper", "ai"})
	v.SetDefault("sources.max_products_per_query", 5)
	v.SetDefault("sources.search_results", 5)
	v.SetDefault("sources.scraper_timeout", "60s")
	v.SetDefault("sources.websearch_timeout", "10s")
	v.SetDefault("sources.ai_timeout", "30s")
	v.SetDefault("sources.amazon_timeout", "60s")

	// Backend defaults
	v.SetDefault("scraper.base_url", "http://localhost:8000")
	v.SetDefault("scraper.site", "flipkart")
	v.SetDefault("websearch.base_url", "http://localhost:8001")
	v.SetDefault("amazon.base_url", "http://localhost:8002/api/v1")
	v.SetDefault("charts.base_url", "http://localhost:8003")
	v.SetDefault("charts.timeout", "30s")

	// Gemini defaults
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Quota defaults: scraping and generation burn constrained budgets,
	// search is effectively free
	v.SetDefault("quota.scraper_daily", 200)
	v.SetDefault("quota.websearch_daily", 0)
	v.SetDefault("quota.ai_daily", 100)
	v.SetDefault("quota.amazon_daily", 50)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set P2I_GEMINI_API_KEY)")
	}

	if len(config.Sources.Priority) == 0 {
		return fmt.Errorf("sources.priority must name at least one source")
	}
	for _, source := range config.Sources.Priority {
		if !validSources[source] {
			return fmt.Errorf("unknown source %q in sources.priority (valid: scraper, websearch, ai)", source)
		}
	}

	if config.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL is required")
	}
	if config.WebSearch.BaseURL == "" {
		return fmt.Errorf("websearch base URL is required")
	}

	return nil
}
