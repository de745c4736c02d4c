package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/metrics"
	"ContestSync/internal/model"
	"ContestSync/internal/normalize"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// platformState 单平台抓取状态（进程级，随进程生命周期）
type platformState struct {
	mu                  sync.Mutex
	lastSuccessfulFetch time.Time // 零值表示从未成功
	consecutiveErrors   int
	inFlight            int32 // CAS互斥：每平台同时至多一个抓取周期
}

// FetchOutcome 一次抓取周期的结果
type FetchOutcome struct {
	CycleID   string             `json:"cycle_id"`
	Platform  model.PlatformType `json:"platform"`
	Source    model.SourceType   `json:"source"`
	Count     int                `json:"count"`
	Saved     int                `json:"saved"`
	FromCache bool               `json:"from_cache"`
	Degraded  bool               `json:"degraded"`
	Skipped   bool               `json:"skipped"` // 已有周期在途，本次触发被丢弃
	FetchedAt time.Time          `json:"fetched_at"`
}

// ChainProvider 平台→有序适配器链的提供方（生产实现为adapter.Registry）
type ChainProvider interface {
	ListPlatforms() []model.PlatformType
	Chain(platform model.PlatformType) ([]interfaces.SourceAdapter, error)
}

// FetchService 抓取编排核心：回退链→规范化→幂等落库→缓存更新→状态记账
type FetchService struct {
	cfg        *config.Config
	logger     *logrus.Logger
	normalizer *normalize.Normalizer
	repo       interfaces.ContestRepository
	cache      *fetch.TTLCache
	chains     map[model.PlatformType]*fetch.FallbackChain
	states     map[model.PlatformType]*platformState

	// Now 可注入时钟，保证测试确定性
	Now func() time.Time
}

func NewFetchService(cfg *config.Config, registry ChainProvider, repo interfaces.ContestRepository, logger *logrus.Logger) *FetchService {
	s := &FetchService{
		cfg:        cfg,
		logger:     logger,
		normalizer: normalize.New(logger),
		repo:       repo,
		cache:      fetch.NewTTLCache(time.Now),
		chains:     make(map[model.PlatformType]*fetch.FallbackChain),
		states:     make(map[model.PlatformType]*platformState),
		Now:        time.Now,
	}

	for _, platform := range registry.ListPlatforms() {
		platformCfg := cfg.Platforms[string(platform)]
		adapters, err := registry.Chain(platform)
		if err != nil {
			logger.WithError(err).WithField("platform", platform).Error("获取适配器链失败，跳过该平台")
			continue
		}

		var links []fetch.Link
		for _, ins := range adapters {
			retryCount := platformCfg.RetryCount
			if ins.SourceType() == model.SourceSynthetic {
				retryCount = 1 // 兜底适配器不会失败，无需重试
			}
			links = append(links, fetch.Link{
				Adapter: ins,
				Retry:   fetch.NewRetryPolicy(retryCount, platformCfg.RetryBaseDelay, logger),
			})
		}
		s.chains[platform] = fetch.NewFallbackChain(platform, links, logger)
		s.states[platform] = &platformState{}
		s.cache.SetTTL(platform, platformCfg.CacheTTL)
	}
	return s
}

// Platforms 所有可抓取的平台
func (s *FetchService) Platforms() []model.PlatformType {
	var platforms []model.PlatformType
	for _, p := range model.AllPlatforms {
		if _, ok := s.chains[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// GetCached 非阻塞读取最近一次结果（可能过期），绝不触发上游调用
func (s *FetchService) GetCached(platform model.PlatformType) *fetch.CachedBatch {
	return s.cache.Peek(platform)
}

// FetchPlatform 执行单平台抓取周期
// 有效缓存直接返回（防击穿）；已有周期在途时本次触发置Skipped丢弃，不排队
func (s *FetchService) FetchPlatform(ctx context.Context, platform model.PlatformType) (*FetchOutcome, error) {
	chain, ok := s.chains[platform]
	if !ok {
		return nil, fmt.Errorf("平台%s未装配适配器链", platform)
	}
	state := s.states[platform]
	cycleID := uuid.NewString()
	now := s.Now()

	// 1. 有效期内的缓存直接复用，不触发任何适配器调用
	if cached, valid := s.cache.Get(platform); valid {
		metrics.CacheHits.WithLabelValues(string(platform)).Inc()
		s.logger.WithFields(logrus.Fields{
			"cycle_id": cycleID,
			"platform": platform,
		}).Debug("缓存有效，跳过上游抓取")
		return &FetchOutcome{
			CycleID:   cycleID,
			Platform:  platform,
			Source:    cached.Source,
			Count:     len(cached.Contests),
			FromCache: true,
			FetchedAt: cached.CachedAt,
		}, nil
	}

	// 2. in-flight互斥：同平台并发触发为no-op
	if !atomic.CompareAndSwapInt32(&state.inFlight, 0, 1) {
		metrics.TriggersSkipped.WithLabelValues(string(platform)).Inc()
		s.logger.WithFields(logrus.Fields{
			"cycle_id": cycleID,
			"platform": platform,
		}).Warn("该平台已有抓取周期在途，本次触发丢弃")
		return &FetchOutcome{CycleID: cycleID, Platform: platform, Skipped: true}, nil
	}
	defer atomic.StoreInt32(&state.inFlight, 0)

	// 3. 回退链执行（永不返回错误，最差由synthetic产出）
	result := chain.Run(ctx)

	// 4. 规范化（单条失败跳过）
	contests := s.normalizer.NormalizeBatch(result.Raws, now)

	// 5. 幂等落库（单条失败跳过）
	saved, err := s.repo.UpsertBatch(ctx, contests)
	if err != nil {
		// UpsertBatch契约上不返回批级错误；保险起见仅记日志，不中断周期
		s.logger.WithError(err).WithField("platform", platform).Error("批量落库异常")
	}
	metrics.ContestsUpserted.WithLabelValues(string(platform)).Add(float64(saved))

	// 6. 缓存写入（链执行完成后才发生，含synthetic产出）
	s.cache.Put(platform, contests, result.Source)

	// 7. 状态记账：兜底产出不算成功抓取，错误计数+1
	state.mu.Lock()
	if result.Degraded {
		state.consecutiveErrors++
		metrics.FetchFailure.WithLabelValues(string(platform), string(result.Source)).Inc()
	} else {
		state.consecutiveErrors = 0
		state.lastSuccessfulFetch = now
		metrics.FetchSuccess.WithLabelValues(string(platform), string(result.Source)).Inc()
	}
	state.mu.Unlock()

	outcome := &FetchOutcome{
		CycleID:   cycleID,
		Platform:  platform,
		Source:    result.Source,
		Count:     len(contests),
		Saved:     saved,
		Degraded:  result.Degraded,
		FetchedAt: now,
	}
	s.logger.WithFields(logrus.Fields{
		"cycle_id": cycleID,
		"platform": platform,
		"source":   result.Source,
		"count":    outcome.Count,
		"saved":    saved,
		"degraded": result.Degraded,
	}).Info("抓取周期完成")
	return outcome, nil
}

// FetchAll 并发抓取所有平台（平台间无顺序保证，平台内链严格串行）
func (s *FetchService) FetchAll(ctx context.Context) []*FetchOutcome {
	platforms := s.Platforms()
	outcomes := make([]*FetchOutcome, len(platforms))

	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(idx int, p model.PlatformType) {
			defer wg.Done()
			outcome, err := s.FetchPlatform(ctx, p)
			if err != nil {
				s.logger.WithError(err).WithField("platform", p).Error("平台抓取失败")
				return
			}
			outcomes[idx] = outcome
		}(i, platform)
	}
	wg.Wait()

	var result []*FetchOutcome
	for _, o := range outcomes {
		if o != nil {
			result = append(result, o)
		}
	}
	return result
}
