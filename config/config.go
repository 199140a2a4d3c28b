package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trendscout service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig contains LLM provider configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig contains trend discovery source settings
type DiscoveryConfig struct {
	TavilyAPIKey  string        `mapstructure:"tavily_api_key"`
	RedditEnabled bool          `mapstructure:"reddit_enabled"`
	MaxResults    int           `mapstructure:"max_results"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"` // inmemory, redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"` // 0 = no eviction
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// PlatformsConfig allows overriding the built-in trend source allowlists
type PlatformsConfig struct {
	TrendSources map[string][]string `mapstructure:"trend_sources"`
}

func (c *Config) Validate() error {
	if c.Discovery.MaxCandidates <= 0 {
		return fmt.Errorf("discovery.max_candidates must be > 0")
	}
	switch c.Session.Backend {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("unsupported session backend: %s", c.Session.Backend)
	}
	return nil
}

// LoadConfig loads configuration from file, environment and defaults.
// Missing file is not an error; defaults keep the pipeline runnable with
// zero external configuration (discovery degrades to simulated providers).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trendscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("TRENDSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Plain env vars win for secrets so docker/k8s deployments need no file.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" && cfg.Discovery.TavilyAPIKey == "" {
		cfg.Discovery.TavilyAPIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", 30*time.Second)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4-turbo-preview")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("discovery.reddit_enabled", true)
	v.SetDefault("discovery.max_results", 10)
	v.SetDefault("discovery.max_candidates", 15)
	v.SetDefault("discovery.timeout", 30*time.Second)

	v.SetDefault("session.backend", "inmemory")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.ttl", time.Duration(0))

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", true)
}
