package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "user:"

// RedisStore keeps each user as a JSON value under user:<username>.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(username string) string {
	return redisKeyPrefix + username
}

func (s *RedisStore) Get(ctx context.Context, username string) (*User, error) {
	raw, err := s.client.Get(ctx, redisKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

func (s *RedisStore) Create(ctx context.Context, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(user.Username), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Delete removes a user. Registration never deletes; tests use it for cleanup.
func (s *RedisStore) Delete(ctx context.Context, username string) error {
	return s.client.Del(ctx, redisKey(username)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
