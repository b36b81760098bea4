package rolecache

import (
	"context"
	"encoding/json"
	"errors"

	"barberia_backend/internal/auth/roles"
	"barberia_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// blobKey is the single Redis key holding the whole email→role map as one
// JSON blob.
const blobKey = "auth:rolecache"

// RedisStore persists the role cache in Redis. Reads fail open: Redis being
// down or the blob being corrupt degrades to an empty map, never an error.
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisStore creates a Redis-backed role cache.
func NewRedisStore(client *redis.Client, log *logger.Logger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

// Put overwrites the entry for the email with the given role.
// The map is read-modified-written as a whole; the sync flows are the only
// writer (one flow in flight per session), so no locking is needed.
func (s *RedisStore) Put(ctx context.Context, email string, role roles.RoleID) error {
	entries := s.load(ctx)
	entries[NormalizeEmail(email)] = role.Name()

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, blobKey, data, 0).Err()
}

// Get returns the cached role for the email, if any.
func (s *RedisStore) Get(ctx context.Context, email string) (roles.RoleID, bool) {
	name, ok := s.load(ctx)[NormalizeEmail(email)]
	if !ok {
		return 0, false
	}
	return roles.FromName(name)
}

func (s *RedisStore) load(ctx context.Context) map[string]string {
	raw, err := s.client.Get(ctx, blobKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.log != nil {
			s.log.Warn("role cache unreadable, degrading to empty", "error", err)
		}
		return map[string]string{}
	}

	entries := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		if s.log != nil {
			s.log.Warn("role cache blob corrupt, degrading to empty", "error", err)
		}
		return map[string]string{}
	}
	return entries
}

var _ Store = (*RedisStore)(nil)
