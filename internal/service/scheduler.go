package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ContestSync/internal/config"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/metrics"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Scheduler 定时触发器：平台级周期、全量兜底、健康巡检、过期清理
// 状态机（每平台）：Idle -> Fetching -> Idle；全局isRunning防止两次全量周期重叠
type Scheduler struct {
	cfg    *config.Config
	svc    *FetchService
	repo   interfaces.ContestRepository
	logger *logrus.Logger

	isRunning int32 // 全局全量抓取互斥
}

func NewScheduler(cfg *config.Config, svc *FetchService, repo interfaces.ContestRepository, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		svc:    svc,
		repo:   repo,
		logger: logger,
	}
}

// Start 启动所有触发器，阻塞到ctx取消
// 定时循环自身不做网络I/O，每次触发都是独立goroutine，慢适配器不会阻塞计时
func (s *Scheduler) Start(ctx context.Context) error {
	var wg sync.WaitGroup

	// 启动后短延迟执行一次全量抓取，避免对外提供空数据
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Sync.StartupDelay):
			s.logger.Info("启动初次全量抓取")
			s.TriggerAll(ctx)
		}
	}()

	// 平台级固定周期触发
	for _, platform := range s.svc.Platforms() {
		platformCfg := s.cfg.Platforms[string(platform)]
		wg.Add(1)
		go func(p model.PlatformType, interval time.Duration) {
			defer wg.Done()
			s.runPlatformLoop(ctx, p, interval)
		}(platform, platformCfg.SyncInterval)
	}

	// 全局低频兜底：无视各平台节奏全量重抓一遍
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.Sync.GlobalInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.logger.Info("全局兜底抓取触发")
				s.TriggerAll(ctx)
			}
		}
	}()

	// 健康巡检
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.Sync.HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runHealthCheck()
			}
		}
	}()

	// 过期清理
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.Sync.RetentionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runRetention(ctx)
			}
		}
	}()

	s.logger.Info("调度器启动完成")
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// runPlatformLoop 单平台固定周期循环
func (s *Scheduler) runPlatformLoop(ctx context.Context, platform model.PlatformType, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.svc.FetchPlatform(ctx, platform); err != nil {
				s.logger.WithError(err).WithField("platform", platform).Error("定时抓取失败")
			}
		}
	}
}

// TriggerAll 手动/定时全量抓取入口
// 已有全量周期在途时本次触发跳过并记日志，不排队
func (s *Scheduler) TriggerAll(ctx context.Context) []*FetchOutcome {
	if !atomic.CompareAndSwapInt32(&s.isRunning, 0, 1) {
		metrics.TriggersSkipped.WithLabelValues("all").Inc()
		s.logger.Warn("已有全量抓取周期在途，本次触发跳过")
		return nil
	}
	defer atomic.StoreInt32(&s.isRunning, 0)
	return s.svc.FetchAll(ctx)
}

// TriggerPlatform 手动单平台抓取入口（运维/调试用）
func (s *Scheduler) TriggerPlatform(ctx context.Context, platform model.PlatformType) (*FetchOutcome, error) {
	return s.svc.FetchPlatform(ctx, platform)
}

// runHealthCheck 输出健康分级；全平台critical是唯一对运维可见的失败（仍继续服务缓存/合成数据）
func (s *Scheduler) runHealthCheck() {
	report := s.svc.Health()
	for platform, h := range report {
		entry := s.logger.WithFields(logrus.Fields{
			"platform":   platform,
			"status":     h.Status,
			"err_count":  h.ConsecutiveErrors,
			"last_fetch": h.LastSuccessfulFetch,
		})
		switch h.Status {
		case HealthHealthy:
			entry.Debug("平台健康")
		case HealthDegraded:
			entry.Info("平台降级")
		case HealthWarning:
			entry.Warn("平台告警")
		case HealthCritical:
			entry.Error("平台危急")
		}
	}
	if AllCritical(report) {
		s.logger.Error("所有平台均处于critical，系统整体依赖缓存/合成数据运行")
	}
}

// runRetention 清理超过保留期的已结束比赛
func (s *Scheduler) runRetention(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.Sync.RetentionAge)
	deleted, err := s.repo.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("过期清理失败")
		return
	}
	metrics.RetentionDeleted.Add(float64(deleted))
	s.logger.WithFields(logrus.Fields{
		"cutoff":  cutoff,
		"deleted": deleted,
	}).Info("过期清理完成")
}
