package cache

import (
	"context"
	"sync"
	"time"
)

// Entity names used as key prefixes.
const (
	EntityAccount      = "account"
	EntityOwner        = "owner"
	EntityExchangeRate = "exchange_rate"
)

// EntityCache caches one entity type by id. A miss is (nil, false, nil).
type EntityCache[T any] interface {
	Get(ctx context.Context, id interface{}) (*T, bool, error)
	Put(ctx context.Context, id interface{}, value *T) error
	Evict(ctx context.Context, ids ...interface{}) error
}

// RedisEntityCache scopes a CacheService to one entity type.
type RedisEntityCache[T any] struct {
	svc    *CacheService
	entity string
}

func NewRedisEntityCache[T any](svc *CacheService, entity string) *RedisEntityCache[T] {
	return &RedisEntityCache[T]{svc: svc, entity: entity}
}

func (c *RedisEntityCache[T]) key(id interface{}) string {
	return c.svc.Key(c.entity, id)
}

func (c *RedisEntityCache[T]) Get(ctx context.Context, id interface{}) (*T, bool, error) {
	var value T
	found, err := c.svc.Get(ctx, c.key(id), &value)
	if err != nil || !found {
		return nil, false, err
	}
	return &value, true, nil
}

func (c *RedisEntityCache[T]) Put(ctx context.Context, id interface{}, value *T) error {
	return c.svc.Set(ctx, c.key(id), value)
}

func (c *RedisEntityCache[T]) Evict(ctx context.Context, ids ...interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	return c.svc.Delete(ctx, keys...)
}

type localEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// LocalCache is an in-process EntityCache. Values are copied on the way in
// and out so callers cannot mutate cached state.
type LocalCache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]localEntry[T]
}

// NewLocalCache returns a cache whose entries expire after ttl; ttl <= 0
// disables expiry.
func NewLocalCache[T any](ttl time.Duration) *LocalCache[T] {
	return &LocalCache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]localEntry[T]),
	}
}

func (c *LocalCache[T]) Get(_ context.Context, id interface{}) (*T, bool, error) {
	k := GenerateKey("local", "id", id)

	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, k)
		c.mu.Unlock()
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *LocalCache[T]) Put(_ context.Context, id interface{}, value *T) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[GenerateKey("local", "id", id)] = localEntry[T]{
		value:     *value,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *LocalCache[T]) Evict(_ context.Context, ids ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, GenerateKey("local", "id", id))
	}
	return nil
}

// Len returns the number of live and expired entries held.
func (c *LocalCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
