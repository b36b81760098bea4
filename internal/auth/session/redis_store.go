package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:session:"

// RedisStore persists sessions in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Create persists the user under a fresh opaque session ID.
func (s *RedisStore) Create(ctx context.Context, user User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}

	sessionID := uuid.NewString()
	if err := s.client.Set(ctx, key(sessionID), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: store: %w", err)
	}
	return sessionID, nil
}

// Get returns the session user, or (nil, nil) when absent or expired.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*User, error) {
	if sessionID == "" {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &user, nil
}

// Update overwrites the session, refreshing its TTL.
func (s *RedisStore) Update(ctx context.Context, sessionID string, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return s.client.Set(ctx, key(sessionID), data, s.ttl).Err()
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, key(sessionID)).Err()
}

var _ Store = (*RedisStore)(nil)
