package fetch

import (
	"context"

	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Link 回退链中的一环：适配器 + 其专属重试策略
type Link struct {
	Adapter interfaces.SourceAdapter
	Retry   *RetryPolicy
}

// ChainResult 一次链执行的产物
type ChainResult struct {
	Platform model.PlatformType
	Source   model.SourceType    // 最终产出数据的适配器类型
	Raws     []*model.RawContest // 原始比赛列表
	Degraded bool                // 是否由兜底（synthetic）产出
}

// FallbackChain 单平台的适配器回退链
// 按顺序逐个尝试：非空结果即止；空结果或重试用尽则前进到下一环。
// 链尾恒为synthetic（不会失败），因此Run永不返回错误——这是设计不变式。
type FallbackChain struct {
	Platform model.PlatformType
	Links    []Link
	logger   *logrus.Logger
}

func NewFallbackChain(platform model.PlatformType, links []Link, logger *logrus.Logger) *FallbackChain {
	return &FallbackChain{Platform: platform, Links: links, logger: logger}
}

// Run 执行回退链。同一平台内各环严格串行，绝不并发竞速。
func (c *FallbackChain) Run(ctx context.Context) *ChainResult {
	for _, link := range c.Links {
		source := link.Adapter.SourceType()
		op := string(c.Platform) + "/" + string(source)

		var raws []*model.RawContest
		err := link.Retry.Do(ctx, op, func(ctx context.Context) error {
			var ferr error
			raws, ferr = link.Adapter.FetchContests(ctx, c.Platform)
			return ferr
		})
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"platform": c.Platform,
				"source":   source,
			}).Warn("适配器重试用尽，回退到下一环")
			continue
		}
		if len(raws) == 0 {
			c.logger.WithFields(logrus.Fields{
				"platform": c.Platform,
				"source":   source,
			}).Warn("适配器返回空结果，回退到下一环")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"platform": c.Platform,
			"source":   source,
			"count":    len(raws),
		}).Info("回退链命中")
		return &ChainResult{
			Platform: c.Platform,
			Source:   source,
			Raws:     raws,
			Degraded: source == model.SourceSynthetic,
		}
	}

	// 链尾synthetic不会走到这里；留作保险，返回空的兜底结果
	c.logger.WithField("platform", c.Platform).Error("回退链落空（synthetic未配置？）")
	return &ChainResult{Platform: c.Platform, Source: model.SourceSynthetic, Degraded: true}
}
