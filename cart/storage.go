package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// RedisStorage keeps each cart blob as a string key with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *RedisStorage) Set(ctx context.Context, key string, blob []byte) error {
	return r.client.Set(ctx, key, blob, r.ttl).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
