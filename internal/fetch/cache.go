package fetch

import (
	"sync"
	"time"

	"ContestSync/internal/model"
)

// CachedBatch 单平台最近一次成功的规范化结果
type CachedBatch struct {
	Contests []*model.Contest
	Source   model.SourceType // 产出该批数据的适配器类型
	CachedAt time.Time
}

// TTLCache 按平台缓存最近一次规范化批次
// 写入只发生在一次回退链执行完成之后；有效期内的读取不触发任何上游调用。
type TTLCache struct {
	mu      sync.RWMutex
	ttls    map[model.PlatformType]time.Duration
	entries map[model.PlatformType]*CachedBatch
	now     func() time.Time
}

func NewTTLCache(now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		ttls:    make(map[model.PlatformType]time.Duration),
		entries: make(map[model.PlatformType]*CachedBatch),
		now:     now,
	}
}

// SetTTL 配置单平台的缓存有效期
func (c *TTLCache) SetTTL(platform model.PlatformType, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls[platform] = ttl
}

// Get 返回有效期内的缓存，过期或不存在时ok=false
func (c *TTLCache) Get(platform model.PlatformType) (*CachedBatch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[platform]
	if !ok {
		return nil, false
	}
	ttl := c.ttls[platform]
	if ttl > 0 && c.now().Sub(entry.CachedAt) >= ttl {
		return entry, false
	}
	return entry, true
}

// Peek 返回最近一次缓存（可能已过期），用于永不I/O的读路径
func (c *TTLCache) Peek(platform model.PlatformType) *CachedBatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[platform]
}

// Put 写入一次完成的批次
func (c *TTLCache) Put(platform model.PlatformType, contests []*model.Contest, source model.SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[platform] = &CachedBatch{
		Contests: contests,
		Source:   source,
		CachedAt: c.now(),
	}
}
