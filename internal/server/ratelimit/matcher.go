package ratelimit

import (
	"net/http"
	"strings"
)

var unlimited = &EndpointConfig{}

// MatchEndpoint returns the configuration for path and method, or nil to use
// the default limit. Health, metrics and the root probe are never limited.
// Exact matches win over prefix matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet || method == http.MethodOptions {
		switch path {
		case "/", "/health", "/metrics":
			return unlimited
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method || !isPrefix(config.Path) {
			continue
		}
		if strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}

func isPrefix(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, "-")
}
