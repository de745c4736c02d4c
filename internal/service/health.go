package service

import (
	"time"

	"ContestSync/internal/model"
)

// HealthStatus 平台健康等级
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// PlatformHealth 单平台健康报告
type PlatformHealth struct {
	Platform            model.PlatformType `json:"platform"`
	LastSuccessfulFetch *time.Time         `json:"last_successful_fetch"` // nil表示从未成功
	ConsecutiveErrors   int                `json:"consecutive_errors"`
	Status              HealthStatus       `json:"status"`
}

// Health 按距上次成功抓取的时长给所有平台分级
// 阈值来自配置（默认1h degraded / 2h warning / 4h或从未成功 critical）
func (s *FetchService) Health() map[model.PlatformType]PlatformHealth {
	now := s.Now()
	report := make(map[model.PlatformType]PlatformHealth, len(s.states))

	for _, platform := range s.Platforms() {
		state := s.states[platform]
		state.mu.Lock()
		last := state.lastSuccessfulFetch
		errCount := state.consecutiveErrors
		state.mu.Unlock()

		h := PlatformHealth{
			Platform:          platform,
			ConsecutiveErrors: errCount,
		}
		if last.IsZero() {
			// 从未成功即critical（启动初期由startup one-shot尽快消解）
			h.Status = HealthCritical
		} else {
			t := last
			h.LastSuccessfulFetch = &t
			elapsed := now.Sub(last)
			switch {
			case elapsed >= s.cfg.Sync.CriticalAfter:
				h.Status = HealthCritical
			case elapsed >= s.cfg.Sync.WarningAfter:
				h.Status = HealthWarning
			case elapsed >= s.cfg.Sync.DegradedAfter:
				h.Status = HealthDegraded
			default:
				h.Status = HealthHealthy
			}
		}
		report[platform] = h
	}
	return report
}

// AllCritical 是否所有平台均为critical（唯一对运维可见的失败条件）
func AllCritical(report map[model.PlatformType]PlatformHealth) bool {
	if len(report) == 0 {
		return false
	}
	for _, h := range report {
		if h.Status != HealthCritical {
			return false
		}
	}
	return true
}
