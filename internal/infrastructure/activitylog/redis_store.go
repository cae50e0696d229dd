package activitylog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list holding the activity log
const DefaultRedisKey = "erp:connector:activity_log"

// RedisStore keeps the activity log in a Redis list so every instance of
// the connector shares it. LPUSH plus LTRIM keeps the list capped.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store on an existing Redis client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Append pushes entry to the head of the list and trims the tail
func (s *RedisStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode activity log entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		pipe.LTrim(ctx, s.key, 0, MaxEntries-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append activity log entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// skip entries written by an incompatible version
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear deletes the list
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear activity log: %w", err)
	}
	return nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
