package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCacheConfig 内存缓存配置
type MemoryCacheConfig struct {
	MaxSize         int64         // 最大条目数量
	DefaultTTL      time.Duration // 默认TTL
	CleanupInterval time.Duration // 过期条目清理间隔，<=0 表示不启动清理协程
}

// DefaultMemoryCacheConfig 默认内存缓存配置
func DefaultMemoryCacheConfig() MemoryCacheConfig {
	return MemoryCacheConfig{
		MaxSize:         1000,
		DefaultTTL:      5 * time.Second,
		CleanupInterval: time.Minute,
	}
}

// MemoryCache 线程安全的进程内缓存实现
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*CacheEntry
	maxSize    int64
	hitCount   int64
	missCount  int64
	defaultTTL time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	lastCleanup   time.Time
	closeOnce     sync.Once
}

// NewMemoryCache 创建新的内存缓存
func NewMemoryCache(config MemoryCacheConfig) *MemoryCache {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMemoryCacheConfig().MaxSize
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultMemoryCacheConfig().DefaultTTL
	}

	mc := &MemoryCache{
		entries:     make(map[string]*CacheEntry),
		maxSize:     config.MaxSize,
		defaultTTL:  config.DefaultTTL,
		stopCleanup: make(chan struct{}),
		lastCleanup: time.Now(),
	}

	if config.CleanupInterval > 0 {
		mc.cleanupTicker = time.NewTicker(config.CleanupInterval)
		go mc.startCleanup()
	}

	return mc
}

// Get 获取缓存值，未命中或已过期返回 ErrCacheMiss
func (mc *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	mc.mu.RLock()
	entry, exists := mc.entries[key]
	mc.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&mc.missCount, 1)
		return nil, ErrCacheMissNotFound
	}

	if entry.ExpireTime.Before(time.Now()) {
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		atomic.AddInt64(&mc.missCount, 1)
		return nil, ErrCacheMissNotFound
	}

	atomic.AddInt64(&entry.HitCount, 1)
	atomic.AddInt64(&mc.hitCount, 1)
	return entry.Value, nil
}

// Set 设置缓存值，ttl<=0 时使用默认TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}

	now := time.Now()
	entry := &CacheEntry{
		Value:      value,
		ExpireTime: now.Add(ttl),
		CreateTime: now,
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.entries[key]; !exists && int64(len(mc.entries)) >= mc.maxSize {
		mc.evictOldest()
	}

	mc.entries[key] = entry
	return nil
}

// Delete 删除缓存值
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.entries, key)
	return nil
}

// Clear 清空缓存并重置统计
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries = make(map[string]*CacheEntry)
	atomic.StoreInt64(&mc.hitCount, 0)
	atomic.StoreInt64(&mc.missCount, 0)
	return nil
}

// Stats 获取缓存统计信息
func (mc *MemoryCache) Stats() CacheStats {
	mc.mu.RLock()
	size := int64(len(mc.entries))
	lastCleanup := mc.lastCleanup
	mc.mu.RUnlock()

	hitCount := atomic.LoadInt64(&mc.hitCount)
	missCount := atomic.LoadInt64(&mc.missCount)

	var hitRate float64
	if total := hitCount + missCount; total > 0 {
		hitRate = float64(hitCount) / float64(total)
	}

	return CacheStats{
		Size:        size,
		MaxSize:     mc.maxSize,
		HitCount:    hitCount,
		MissCount:   missCount,
		HitRate:     hitRate,
		TTL:         mc.defaultTTL,
		LastCleanup: lastCleanup,
	}
}

// Close 停止清理协程
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		if mc.cleanupTicker != nil {
			mc.cleanupTicker.Stop()
		}
		close(mc.stopCleanup)
	})
	return nil
}

func (mc *MemoryCache) startCleanup() {
	for {
		select {
		case <-mc.cleanupTicker.C:
			mc.cleanup()
		case <-mc.stopCleanup:
			return
		}
	}
}

func (mc *MemoryCache) cleanup() {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key, entry := range mc.entries {
		if entry.ExpireTime.Before(now) {
			delete(mc.entries, key)
		}
	}
	mc.lastCleanup = now
}

// evictOldest 淘汰创建时间最早的条目，调用方必须持有写锁
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range mc.entries {
		if oldestKey == "" || entry.CreateTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreateTime
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}
