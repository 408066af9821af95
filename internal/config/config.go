// Package config loads service and client configuration from an optional
// YAML file, environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for both the gateway and the CLI client.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Client    ClientConfig    `mapstructure:"client"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig selects and tunes the text-generation provider.
type LLMConfig struct {
	Provider            string        `mapstructure:"provider"`
	Model               string        `mapstructure:"model"`
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Temperature         float64       `mapstructure:"temperature"`
	MaxOutputTokens     int           `mapstructure:"max_output_tokens"`
	BreakerThreshold    int           `mapstructure:"breaker_threshold"`
	BreakerCooldown     time.Duration `mapstructure:"breaker_cooldown"`
	UseCallerCredential bool          `mapstructure:"use_caller_credential"`
}

// Auth modes.
const (
	AuthModeNone   = "none"
	AuthModeJWT    = "jwt"
	AuthModeAPIKey = "apikey"
)

// AuthConfig controls how bearer credentials are checked.
type AuthConfig struct {
	Mode               string   `mapstructure:"mode"`
	JWTSecret          string   `mapstructure:"jwt_secret"`
	JWTExpirationHours int      `mapstructure:"jwt_expiration_hours"`
	APIKeyHashes       []string `mapstructure:"api_key_hashes"`
}

// RateLimitConfig mirrors ratelimit.Config in a file-friendly shape.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	GenerateLimit   int           `mapstructure:"generate_limit"`
	GenerateWindow  time.Duration `mapstructure:"generate_window"`
	GenerateBurst   int           `mapstructure:"generate_burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// LoggerConfig configures zap.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	GatewayURL      string        `mapstructure:"gateway_url"`
	Credential      string        `mapstructure:"credential"`
	Timeout         time.Duration `mapstructure:"timeout"`
	FallbackEnabled bool          `mapstructure:"fallback_enabled"`
	OutputDir       string        `mapstructure:"output_dir"`
}

// LoadConfig reads configuration. An empty path searches for config.yaml in
// "." and "./configs"; a missing file is not an error in that case.
// Environment variables override file values (SERVER_PORT -> server.port).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_output_tokens", 2000)
	v.SetDefault("llm.breaker_threshold", 0)
	v.SetDefault("llm.breaker_cooldown", 30*time.Second)
	v.SetDefault("llm.use_caller_credential", false)

	v.SetDefault("auth.mode", AuthModeNone)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration_hours", 24)
	v.SetDefault("auth.api_key_hashes", []string{})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.generate_limit", 30)
	v.SetDefault("rate_limit.generate_window", time.Hour)
	v.SetDefault("rate_limit.generate_burst", 5)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("client.gateway_url", "http://localhost:8080/generate-policy")
	v.SetDefault("client.credential", "")
	v.SetDefault("client.timeout", 90*time.Second)
	v.SetDefault("client.fallback_enabled", false)
	v.SetDefault("client.output_dir", "")
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks value ranges and enumerations. Required secrets are checked
// by the command that needs them.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.UseCallerCredential && c.LLM.Provider != "openai" {
		return fmt.Errorf("config error: 'llm.use_caller_credential' requires llm.provider openai")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config error: 'llm.timeout' must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2")
	}
	if c.LLM.MaxOutputTokens < 1 {
		return fmt.Errorf("config error: 'llm.max_output_tokens' must be positive")
	}
	if c.LLM.BreakerThreshold < 0 {
		return fmt.Errorf("config error: 'llm.breaker_threshold' must be non-negative")
	}

	switch c.Auth.Mode {
	case AuthModeNone:
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("config error: 'auth.jwt_secret' is required when auth.mode is jwt")
		}
		if c.Auth.JWTExpirationHours < 1 {
			return fmt.Errorf("config error: 'auth.jwt_expiration_hours' must be at least 1")
		}
	case AuthModeAPIKey:
		if len(c.Auth.APIKeyHashes) == 0 {
			return fmt.Errorf("config error: 'auth.api_key_hashes' is required when auth.mode is apikey")
		}
	default:
		return fmt.Errorf("config error: unknown auth.mode %q", c.Auth.Mode)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit < 1 || c.RateLimit.GenerateLimit < 1 {
			return fmt.Errorf("config error: rate limits must be positive")
		}
		if c.RateLimit.DefaultWindow <= 0 || c.RateLimit.GenerateWindow <= 0 {
			return fmt.Errorf("config error: rate limit windows must be positive")
		}
		if c.RateLimit.GenerateBurst < 0 {
			return fmt.Errorf("config error: 'rate_limit.generate_burst' must be non-negative")
		}
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config error: unknown logger.format %q", c.Logger.Format)
	}

	if c.Client.Timeout <= 0 {
		return fmt.Errorf("config error: 'client.timeout' must be positive")
	}

	return nil
}
