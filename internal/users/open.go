package users

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// StoreConfig selects and locates a user store backend.
type StoreConfig struct {
	Backend       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
}

// Open builds the configured store. An empty backend selects memory.
func Open(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres user store")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis user store")
		}
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
	default:
		return nil, fmt.Errorf("unknown user store %q (valid: memory, postgres, redis)", cfg.Backend)
	}
}
