package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gridfx-config-bot/internal/tree"
)

const (
	// ConfigKey holds the serialized current configuration tree
	ConfigKey = "gridfx:config:current"

	// configWriteTimeout bounds each Redis round trip so a slow server
	// cannot stall the executor's apply path
	configWriteTimeout = 3 * time.Second
)

// RedisStore persists the configuration tree in Redis with an in-memory
// fallback. When Redis is unavailable the last known tree is served from
// the fallback and writes are cached until Redis recovers.
type RedisStore struct {
	client    *redis.Client
	log       zerolog.Logger
	available atomic.Bool

	mu       sync.RWMutex
	fallback *tree.Tree
}

// NewRedisStore creates a config store on the given client. A nil client
// puts the store in memory-only mode.
func NewRedisStore(client *redis.Client, log zerolog.Logger) *RedisStore {
	s := &RedisStore{
		client: client,
		log:    log.With().Str("component", "redis_store").Logger(),
	}
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			s.log.Warn().Err(err).Msg("redis unavailable at startup, using in-memory fallback")
		} else {
			s.available.Store(true)
		}
	}
	return s
}

// GetCurrent loads the tree from Redis, falling back to the cached copy.
// Returns nil with no error when nothing was stored yet.
func (s *RedisStore) GetCurrent(ctx context.Context) (*tree.Tree, error) {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(ctx, configWriteTimeout)
		defer cancel()

		data, err := s.client.Get(ctx, ConfigKey).Bytes()
		switch {
		case err == redis.Nil:
			s.available.Store(true)
			return s.cached(), nil
		case err != nil:
			s.available.Store(false)
			s.log.Warn().Err(err).Msg("redis read failed, serving fallback")
		default:
			s.available.Store(true)
			var t tree.Tree
			if uerr := json.Unmarshal(data, &t); uerr != nil {
				return nil, fmt.Errorf("corrupt config payload in redis: %w", uerr)
			}
			s.setCached(&t)
			return &t, nil
		}
	}
	return s.cached(), nil
}

// OnChange writes the tree to Redis and always updates the fallback cache.
// A Redis failure is returned to the caller but the cache stays current, so
// a recovered Redis is repopulated on the next successful write.
func (s *RedisStore) OnChange(ctx context.Context, t *tree.Tree) error {
	s.setCached(t)
	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal config tree: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, configWriteTimeout)
	defer cancel()
	if err := s.client.Set(ctx, ConfigKey, data, 0).Err(); err != nil {
		s.available.Store(false)
		return fmt.Errorf("persist config tree: %w", err)
	}
	s.available.Store(true)
	return nil
}

// Available reports whether the last Redis round trip succeeded
func (s *RedisStore) Available() bool {
	return s.available.Load()
}

func (s *RedisStore) cached() *tree.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

func (s *RedisStore) setCached(t *tree.Tree) {
	s.mu.Lock()
	s.fallback = t
	s.mu.Unlock()
}
