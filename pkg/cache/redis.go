package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache 基于Redis的共享缓存实现。
// 值以JSON存储，Get 返回 json.RawMessage，由调用方反序列化为目标类型。
type RedisCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
	hitCount   int64
	missCount  int64
}

// RedisCacheConfig Redis缓存配置
type RedisCacheConfig struct {
	URL        string        // redis:// 连接串
	KeyPrefix  string        // 键前缀，用于多实例共用一个Redis
	DefaultTTL time.Duration // 默认TTL
}

// NewRedisCache 创建Redis缓存并校验连通性
func NewRedisCache(ctx context.Context, config RedisCacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, NewCacheError(ErrCacheBackend, fmt.Sprintf("invalid redis url: %v", err))
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, NewCacheError(ErrCacheBackend, fmt.Sprintf("failed to connect to redis: %v", err))
	}

	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultMemoryCacheConfig().DefaultTTL
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "finx:cache:"
	}

	return &RedisCache{
		client:     client,
		keyPrefix:  config.KeyPrefix,
		defaultTTL: config.DefaultTTL,
	}, nil
}

func (rc *RedisCache) fullKey(key string) string {
	return rc.keyPrefix + key
}

// Get 获取缓存值，返回 json.RawMessage
func (rc *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	payload, err := rc.client.Get(ctx, rc.fullKey(key)).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&rc.missCount, 1)
		return nil, ErrCacheMissNotFound
	}
	if err != nil {
		atomic.AddInt64(&rc.missCount, 1)
		return nil, NewCacheError(ErrCacheBackend, fmt.Sprintf("redis get failed: %v", err))
	}

	atomic.AddInt64(&rc.hitCount, 1)
	return json.RawMessage(payload), nil
}

// Set 以JSON写入缓存值，ttl<=0 时使用默认TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return NewCacheError(ErrCacheEncoding, fmt.Sprintf("failed to encode cache value: %v", err))
	}

	if err := rc.client.Set(ctx, rc.fullKey(key), payload, ttl).Err(); err != nil {
		return NewCacheError(ErrCacheBackend, fmt.Sprintf("redis set failed: %v", err))
	}
	return nil
}

// Delete 删除缓存值
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	if err := rc.client.Del(ctx, rc.fullKey(key)).Err(); err != nil {
		return NewCacheError(ErrCacheBackend, fmt.Sprintf("redis delete failed: %v", err))
	}
	return nil
}

// Clear 删除本实例前缀下的全部键
func (rc *RedisCache) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			return NewCacheError(ErrCacheBackend, fmt.Sprintf("redis delete failed: %v", err))
		}
	}
	if err := iter.Err(); err != nil {
		return NewCacheError(ErrCacheBackend, fmt.Sprintf("redis scan failed: %v", err))
	}
	return nil
}

// Stats 获取缓存统计信息。
// Redis为共享后端，条目数与容量不在本地维护。
func (rc *RedisCache) Stats() CacheStats {
	hitCount := atomic.LoadInt64(&rc.hitCount)
	missCount := atomic.LoadInt64(&rc.missCount)

	var hitRate float64
	if total := hitCount + missCount; total > 0 {
		hitRate = float64(hitCount) / float64(total)
	}

	return CacheStats{
		HitCount:  hitCount,
		MissCount: missCount,
		HitRate:   hitRate,
		TTL:       rc.defaultTTL,
	}
}

// Close 关闭Redis连接
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
