package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/policy-generator/internal/config"
)

// GeneratePath is the only expensive endpoint.
const GeneratePath = "/generate-policy"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromConfig converts the loaded configuration into a limiter Config.
func FromConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: cfg.CleanupInterval,
		Whitelist:       toSet(cfg.Whitelist),
		Blacklist:       toSet(cfg.Blacklist),
		EndpointConfigs: []EndpointConfig{
			{Path: GeneratePath, Method: http.MethodPost, Limit: cfg.GenerateLimit, Window: cfg.GenerateWindow, Burst: cfg.GenerateBurst},
		},
	}
}

func toSet(ips []string) map[string]bool {
	result := make(map[string]bool, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
