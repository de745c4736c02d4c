package fetch

import (
	"testing"
	"time"

	"ContestSync/internal/model"
)

func TestCacheRespectsTTL(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(func() time.Time { return now })
	cache.SetTTL(model.PlatformCodeforces, 15*time.Minute)

	if _, valid := cache.Get(model.PlatformCodeforces); valid {
		t.Fatal("empty cache must not be valid")
	}

	contests := []*model.Contest{{StableID: "codeforces-1"}}
	cache.Put(model.PlatformCodeforces, contests, model.SourceOfficialAPI)

	// TTL窗口内有效
	now = now.Add(10 * time.Minute)
	cached, valid := cache.Get(model.PlatformCodeforces)
	if !valid {
		t.Fatal("cache must be valid inside the TTL window")
	}
	if cached.Source != model.SourceOfficialAPI || len(cached.Contests) != 1 {
		t.Errorf("cached batch corrupted: %+v", cached)
	}

	// 过期后失效，但Peek仍可读到陈旧数据
	now = now.Add(10 * time.Minute)
	if _, valid := cache.Get(model.PlatformCodeforces); valid {
		t.Error("cache must expire after the TTL window")
	}
	if stale := cache.Peek(model.PlatformCodeforces); stale == nil || len(stale.Contests) != 1 {
		t.Error("Peek must still serve the stale batch")
	}
}

// 平台之间互不影响
func TestCacheIsolatesPlatforms(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(func() time.Time { return now })
	cache.SetTTL(model.PlatformCodeforces, 15*time.Minute)
	cache.SetTTL(model.PlatformLeetCode, 30*time.Minute)

	cache.Put(model.PlatformCodeforces, nil, model.SourceSynthetic)
	if _, valid := cache.Get(model.PlatformLeetCode); valid {
		t.Error("platforms must not share entries")
	}
}
