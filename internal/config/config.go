// Package config loads service configuration from the environment and an
// optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/jonathan/study-agent/internal/auth"
	"github.com/jonathan/study-agent/internal/llm"
	"github.com/jonathan/study-agent/internal/server/ratelimit"
	"github.com/jonathan/study-agent/internal/users"
)

// Duration is a time.Duration read from strings such as "90s" in both the
// environment and JSON.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// Config is the complete service configuration.
type Config struct {
	Port          int    `env:"PORT" envDefault:"8000" json:"port,omitempty"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info" json:"log_level,omitempty"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"20971520" json:"max_upload_size,omitempty"`

	Gemini    GeminiConfig    `json:"gemini"`
	Local     LocalConfig     `json:"local_model"`
	Users     UsersConfig     `json:"users"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// GeminiConfig configures the remote endpoint.
type GeminiConfig struct {
	APIKey    string   `env:"GEMINI_API_KEY" json:"api_key,omitempty"`
	BaseURL   string   `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/models" json:"base_url,omitempty"`
	Model     string   `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash" json:"model,omitempty"`
	Endpoint  string   `env:"GEMINI_ENDPOINT" json:"endpoint,omitempty"`
	Transport string   `env:"LLM_TRANSPORT" envDefault:"rest" json:"transport,omitempty"`
	Timeout   Duration `env:"LLM_TIMEOUT" envDefault:"60s" json:"timeout,omitempty"`
}

// LocalConfig configures the local fallback summarizer.
type LocalConfig struct {
	URL     string   `env:"LOCAL_MODEL_URL" json:"url,omitempty"`
	Model   string   `env:"LOCAL_MODEL_NAME" envDefault:"t5-small" json:"model,omitempty"`
	Timeout Duration `env:"LOCAL_MODEL_TIMEOUT" envDefault:"120s" json:"timeout,omitempty"`
}

// UsersConfig selects the user store.
type UsersConfig struct {
	Store         string `env:"USER_STORE" envDefault:"memory" json:"store,omitempty"`
	DatabaseURL   string `env:"DATABASE_URL" json:"database_url,omitempty"`
	RedisAddr     string `env:"REDIS_ADDR" json:"redis_addr,omitempty"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"redis_password,omitempty"`
}

// AuthConfig configures password hashing and access tokens.
type AuthConfig struct {
	JWTSecret      string   `env:"JWT_SECRET" json:"jwt_secret,omitempty"`
	AccessTokenTTL Duration `env:"ACCESS_TOKEN_TTL" envDefault:"60m" json:"access_token_ttl,omitempty"`
	BcryptCost     int      `env:"BCRYPT_COST" envDefault:"12" json:"bcrypt_cost,omitempty"`
	PasswordPepper string   `env:"PASSWORD_PEPPER" json:"password_pepper,omitempty"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled         bool     `env:"RATE_LIMIT_ENABLED" envDefault:"false" json:"enabled,omitempty"`
	DefaultLimit    int      `env:"RATE_LIMIT_DEFAULT_LIMIT" envDefault:"1000" json:"default_limit,omitempty"`
	DefaultWindow   Duration `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1m" json:"default_window,omitempty"`
	CleanupInterval Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m" json:"cleanup_interval,omitempty"`
	Whitelist       string   `env:"RATE_LIMIT_WHITELIST" json:"whitelist,omitempty"`
	Blacklist       string   `env:"RATE_LIMIT_BLACKLIST" json:"blacklist,omitempty"`
}

// Load parses the environment, overlays the JSON file at path when one is
// given and validates the result.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadStudy is Load without the auth section, for commands that never serve
// HTTP.
func LoadStudy(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withAuth bool) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	validate := cfg.validateStudy
	if withAuth {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

// Validate checks value ranges and required settings. A missing Gemini API
// key is not an error here; the first remote call reports it.
func (c *Config) Validate() error {
	if err := c.validateStudy(); err != nil {
		return err
	}
	return c.validateAuth()
}

func (c *Config) validateStudy() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port %d out of range", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("config error: max upload size must be positive")
	}

	switch llm.Transport(strings.ToLower(c.Gemini.Transport)) {
	case llm.TransportREST, llm.TransportSDK:
	default:
		return fmt.Errorf("config error: unsupported LLM transport %q (valid: rest, sdk)", c.Gemini.Transport)
	}
	if c.Gemini.Timeout <= 0 || c.Local.Timeout <= 0 {
		return fmt.Errorf("config error: timeouts must be positive")
	}

	switch c.Users.Store {
	case users.BackendMemory:
	case users.BackendPostgres:
		if c.Users.DatabaseURL == "" {
			return fmt.Errorf("config error: DATABASE_URL is required when USER_STORE=postgres")
		}
	case users.BackendRedis:
		if c.Users.RedisAddr == "" {
			return fmt.Errorf("config error: REDIS_ADDR is required when USER_STORE=redis")
		}
	default:
		return fmt.Errorf("config error: unknown USER_STORE %q (valid: memory, postgres, redis)", c.Users.Store)
	}

	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit <= 0 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: rate limit default limit and window must be positive")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config error: JWT_SECRET is required but not set")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("config error: access token TTL must be positive")
	}
	if c.Auth.BcryptCost < auth.MinBcryptCost || c.Auth.BcryptCost > auth.MaxBcryptCost {
		return fmt.Errorf("config error: bcrypt cost out of range: %d (must be %d-%d)",
			c.Auth.BcryptCost, auth.MinBcryptCost, auth.MaxBcryptCost)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LLM returns the remote client configuration.
func (c *Config) LLM() *llm.Config {
	return &llm.Config{
		Transport: llm.Transport(strings.ToLower(c.Gemini.Transport)),
		APIKey:    c.Gemini.APIKey,
		BaseURL:   c.Gemini.BaseURL,
		Endpoint:  c.Gemini.Endpoint,
		Model:     c.Gemini.Model,
		Timeout:   c.Gemini.Timeout.D(),
	}
}

// LocalModel returns the local summarizer configuration.
func (c *Config) LocalModel() llm.LocalConfig {
	return llm.LocalConfig{
		URL:     c.Local.URL,
		Model:   c.Local.Model,
		Timeout: c.Local.Timeout.D(),
	}
}

// UserStore returns the user store configuration.
func (c *Config) UserStore() users.StoreConfig {
	return users.StoreConfig{
		Backend:       c.Users.Store,
		DatabaseURL:   c.Users.DatabaseURL,
		RedisAddr:     c.Users.RedisAddr,
		RedisPassword: c.Users.RedisPassword,
	}
}

// Limits returns the rate limiter configuration.
func (c *Config) Limits() *ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	rl.Enabled = c.RateLimit.Enabled
	rl.DefaultLimit = c.RateLimit.DefaultLimit
	rl.DefaultWindow = c.RateLimit.DefaultWindow.D()
	rl.CleanupInterval = c.RateLimit.CleanupInterval.D()
	rl.Whitelist = ratelimit.ParseIPList(c.RateLimit.Whitelist)
	rl.Blacklist = ratelimit.ParseIPList(c.RateLimit.Blacklist)
	return rl
}
