package main

import (
	"context"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const cachePrefix = "tg-bothost:"

// Cacher is the document cache in front of the config store
type Cacher interface {
	Get(key string, value interface{}) error
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(keys ...string) error
}

// NewCache returns a Redis backed cache when an address is configured, an in-memory one otherwise
func NewCache(ctx context.Context, conf *CacheConfig) Cacher {
	if conf.RedisAddr == "" {
		return NewMemoryCache(conf.Size)
	}

	return NewRedisCache(ctx, redis.NewClient(&redis.Options{
		Addr:         conf.RedisAddr,
		Password:     conf.RedisPass,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}))
}

type MemoryCache struct {
	cache *freecache.Cache
	mu    sync.RWMutex
}

func NewMemoryCache(size int) *MemoryCache {
	return &MemoryCache{
		cache: freecache.NewCache(size),
	}
}

func (m *MemoryCache) Get(key string, value interface{}) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := m.cache.Get([]byte(cachePrefix + key))
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, value)
}

func (m *MemoryCache) Set(key string, value interface{}, expiration time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return m.cache.Set([]byte(cachePrefix+key), data, int(expiration.Seconds()))
}

func (m *MemoryCache) Delete(keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range keys {
		m.cache.Del([]byte(cachePrefix + key))
	}
	return nil
}

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(ctx context.Context, client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ctx:    ctx,
	}
}

func (r *RedisCache) Get(key string, value interface{}) error {
	data, err := r.client.Get(r.ctx, cachePrefix+key).Bytes()
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, value)
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(r.ctx, cachePrefix+key, data, expiration).Err()
}

func (r *RedisCache) Delete(keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = cachePrefix + key
	}
	return r.client.Del(r.ctx, prefixed...).Err()
}
