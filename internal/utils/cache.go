package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache 带 TTL 的本地 LRU 缓存，详情页渲染数据用。
// 显式构造后注入 handler，不做包级单例。
type Cache struct {
	lruCache *lru.Cache[string, CacheItem]
}

func NewCache(size int) (*Cache, error) {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lruCache: l}, nil
}

// Set 设置缓存，TTL 为过期时间
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *Cache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}
