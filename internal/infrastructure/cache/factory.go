package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores holds the state the connector keeps outside the store database:
// the activity log and the used download tokens
type Stores struct {
	ActivityLog activitylog.Store
	UsedTokens  UsedTokenStore

	client *redis.Client
	memory *InMemoryUsedTokenStore
}

// Close releases the Redis client or the in-memory cleanup goroutine
func (s *Stores) Close() error {
	if s.memory != nil {
		_ = s.memory.Close()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Backend names the backend in use, for logs and health output
func (s *Stores) Backend() string {
	if s.client != nil {
		return "redis"
	}
	return "memory"
}

// Ping checks the Redis connection. The in-memory backend is always healthy.
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// StoreFactory creates the Redis backed stores, or in-memory ones when Redis
// is disabled or unreachable
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  func(config.RedisConfig) (*redis.Client, error)
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the stores
func (f *StoreFactory) Create() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory activity log and token stores")
		return f.inMemory(), nil
	}

	client, err := f.dial(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"The activity log will not survive restarts and download tokens are single-use per instance only.",
			zap.Error(err),
		)
		return f.inMemory(), nil
	}

	f.logger.Info("Using Redis activity log and token stores", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		ActivityLog: activitylog.NewRedisStore(client, ""),
		UsedTokens:  NewRedisUsedTokenStore(client, ""),
		client:      client,
	}, nil
}

func (f *StoreFactory) inMemory() *Stores {
	memory := NewInMemoryUsedTokenStore(5 * time.Minute)
	return &Stores{
		ActivityLog: activitylog.NewMemoryStore(),
		UsedTokens:  memory,
		memory:      memory,
	}
}
