package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig is the limit for one route.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends with "/" or "-"
	Method string        // HTTP method
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig is disabled with the standard per-route limits filled in.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         false,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// document uploads run extraction plus up to four remote calls
		{Path: "/process-", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/summarize-", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},

		// one remote call each
		{Path: "/summarize", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/quiz", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/keywords", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/flashcards", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},

		// credential endpoints
		{Path: "/register", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/token", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},
	}
}

// ParseIPList parses a comma-separated list of addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
