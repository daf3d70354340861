package cache

import (
	"finx/pkg/error"
)

type CacheError struct {
	error.BaseError
}

const (
	// ErrCacheMiss 表示在缓存中未找到请求的条目。
	ErrCacheMiss error.ErrorCode = "CACHE_MISS"
	// ErrCacheFull 表示缓存已满，无法添加新条目。
	ErrCacheFull error.ErrorCode = "CACHE_FULL"
	// ErrCacheClosed 表示尝试访问已关闭的缓存。
	ErrCacheClosed error.ErrorCode = "CACHE_CLOSED"
	// ErrCacheBackend 表示缓存后端（如Redis）操作失败。
	ErrCacheBackend error.ErrorCode = "CACHE_BACKEND"
	// ErrCacheEncoding 表示缓存值的编解码失败。
	ErrCacheEncoding error.ErrorCode = "CACHE_ENCODING"
)

var (
	ErrCacheMissNotFound = NewCacheError(ErrCacheMiss, "cache entry not found")
)

func NewCacheError(code error.ErrorCode, message string) *CacheError {
	return &CacheError{
		BaseError: *error.NewError(code, message),
	}
}
