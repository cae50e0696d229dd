package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultUsedTokenPrefix namespaces used download token ids in Redis
const DefaultUsedTokenPrefix = "erp:download:used:"

// UsedTokenStore remembers single-use token ids until they expire
type UsedTokenStore interface {
	// MarkUsed records id and reports whether this was its first use
	MarkUsed(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// RedisUsedTokenStore implements UsedTokenStore with SETNX, so concurrent
// downloads with the same token across instances see a single winner
type RedisUsedTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ UsedTokenStore = (*RedisUsedTokenStore)(nil)

// NewRedisUsedTokenStore creates a store on an existing client
func NewRedisUsedTokenStore(client *redis.Client, keyPrefix string) *RedisUsedTokenStore {
	if keyPrefix == "" {
		keyPrefix = DefaultUsedTokenPrefix
	}
	return &RedisUsedTokenStore{client: client, keyPrefix: keyPrefix}
}

// MarkUsed implements UsedTokenStore
func (s *RedisUsedTokenStore) MarkUsed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	first, err := s.client.SetNX(ctx, s.keyPrefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark token as used: %w", err)
	}
	return first, nil
}

// InMemoryUsedTokenStore implements UsedTokenStore in process memory. It is
// correct for a single instance only.
type InMemoryUsedTokenStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ UsedTokenStore = (*InMemoryUsedTokenStore)(nil)

// NewInMemoryUsedTokenStore creates a store that purges expired ids every interval
func NewInMemoryUsedTokenStore(interval time.Duration) *InMemoryUsedTokenStore {
	s := &InMemoryUsedTokenStore{
		entries:  make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if interval > 0 {
		s.wg.Add(1)
		go s.cleanupLoop(interval)
	}
	return s
}

// MarkUsed implements UsedTokenStore
func (s *InMemoryUsedTokenStore) MarkUsed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.entries[id]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[id] = now.Add(ttl)
	return true, nil
}

// Size returns the number of remembered ids
func (s *InMemoryUsedTokenStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryUsedTokenStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryUsedTokenStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryUsedTokenStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, id)
		}
	}
}
