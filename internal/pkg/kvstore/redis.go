package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores values under "<namespace>:kv:<key>".
type Redis struct {
	client    *redis.Client
	namespace string
}

func NewRedis(addr, namespace string) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{Addr: addr}), namespace)
}

func NewRedisFromClient(client *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = "storefront"
	}
	return &Redis{client: client, namespace: namespace}
}

// Client exposes the connection so other Redis-backed helpers can share it.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Read(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.GenerateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}
	return v, true, nil
}

// Write stores value without expiry.
func (r *Redis) Write(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.GenerateKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) GenerateKey(key string) string {
	return fmt.Sprintf("%s:kv:%s", r.namespace, key)
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("kvstore: redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
