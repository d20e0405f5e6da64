package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or its payload is unusable.
var ErrMiss = errors.New("cache miss")

// PrefixedCache stores JSON-encoded values of T under a key prefix.
type PrefixedCache[T any] struct {
	cache  *cache.Cache[string]
	prefix string
	ttl    time.Duration
}

func NewPrefixedCache[T any](c *cache.Cache[string], prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{cache: c, prefix: prefix, ttl: ttl}
}

func (p *PrefixedCache[T]) Get(ctx context.Context, key string) (T, error) {
	var result T
	data, err := p.cache.Get(ctx, p.prefix+key)
	if err != nil || data == "" {
		return result, ErrMiss
	}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return result, ErrMiss
	}
	return result, nil
}

func (p *PrefixedCache[T]) Set(ctx context.Context, key string, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, p.prefix+key, string(data), store.WithExpiration(p.ttl))
}

func (p *PrefixedCache[T]) Delete(ctx context.Context, key string) error {
	return p.cache.Delete(ctx, p.prefix+key)
}

func (p *PrefixedCache[T]) GetType() string {
	return p.cache.GetType()
}

// New builds the backing cache for the configured backend.
func New(cfg *config.Config) *cache.Cache[string] {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		return newRedisCache(cfg.CacheRedisAddr)
	default:
		return newMemoryCache(cfg.TokenCacheTTL)
	}
}

func newMemoryCache(ttl time.Duration) *cache.Cache[string] {
	gocacheClient := gocache.New(ttl, 2*ttl)
	return cache.New[string](go_store.NewGoCache(gocacheClient))
}

func newRedisCache(addr string) *cache.Cache[string] {
	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	return cache.New[string](redis_store.NewRedis(redisClient))
}
