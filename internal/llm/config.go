// Package llm talks to the generative backends: the remote Gemini endpoint used
// for every study task and the local summarization model used as its fallback.
package llm

import "time"

// Transport selects how the remote endpoint is reached.
type Transport string

// Supported transports.
const (
	// TransportREST posts JSON to {base}/{model}:generateContent directly.
	TransportREST Transport = "rest"
	// TransportSDK goes through the generative-ai-go client.
	TransportSDK Transport = "sdk"
)

// Defaults for the remote endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second
)

// Config describes the remote endpoint. APIKey may be empty at construction;
// the first Generate call then fails with ErrMissingAPIKey.
type Config struct {
	Transport Transport
	APIKey    string
	BaseURL   string
	// Endpoint overrides the SDK host (TransportSDK only).
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// DefaultConfig returns the REST transport against the public Gemini API.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportREST,
		BaseURL:   DefaultBaseURL,
		Model:     DefaultModel,
		Timeout:   DefaultTimeout,
	}
}

// ModelOrDefault returns model, or the configured default when model is empty.
func (c *Config) ModelOrDefault(model string) string {
	if model != "" {
		return model
	}
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

// timeout returns the configured timeout or DefaultTimeout.
func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// WithAPIKey returns a copy of the config using apiKey.
func (c *Config) WithAPIKey(apiKey string) *Config {
	clone := *c
	clone.APIKey = apiKey
	return &clone
}
