// Package idempotency remembers which order a checkout submission key
// produced, so a replayed submit returns the same order.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Lookup returns the order id recorded for key, if any.
	Lookup(ctx context.Context, key string) (orderID string, ok bool, err error)
	// Remember records orderID under key unless the key is already taken.
	// It reports whether this call stored the value.
	Remember(ctx context.Context, key, orderID string) (bool, error)
	// Forget releases key so a later Remember can take it.
	Forget(ctx context.Context, key string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Key(key string) string {
	return fmt.Sprintf("idem:checkout:%s", key)
}

func (s *RedisStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency: lookup: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Remember(ctx context.Context, key, orderID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.Key(key), orderID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency: remember: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Forget(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency: forget: %w", err)
	}
	return nil
}

type entry struct {
	orderID string
	expires time.Time
}

// MemoryStore is the in-process fallback. A zero ttl never expires.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, keys: make(map[string]entry)}
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	return e.orderID, ok, nil
}

func (s *MemoryStore) Remember(_ context.Context, key, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	e := entry{orderID: orderID}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.keys[key] = e
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}

// live must be called with mu held.
func (s *MemoryStore) live(key string) (entry, bool) {
	e, ok := s.keys[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.keys, key)
		return entry{}, false
	}
	return e, true
}
