package adapter

import (
	"fmt"

	"ContestSync/internal/adapter/aggregator"
	"ContestSync/internal/adapter/codechef"
	"ContestSync/internal/adapter/codeforces"
	"ContestSync/internal/adapter/leetcode"
	"ContestSync/internal/adapter/scrape"
	"ContestSync/internal/adapter/synthetic"
	"ContestSync/internal/config"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

// officialFactories 各平台官方API适配器工厂：新增平台仅需添加此处
var officialFactories = map[model.PlatformType]func(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SourceAdapter{
	model.PlatformCodeforces: codeforces.NewAdapter,
	model.PlatformLeetCode:   leetcode.NewAdapter,
	model.PlatformCodeChef:   codechef.NewAdapter,
}

// Registry 平台→有序适配器链的注册表
// 链组成来自配置（chain字段），synthetic恒为链尾
type Registry struct {
	cfg    *config.Config
	logger *logrus.Logger
	chains map[model.PlatformType][]interfaces.SourceAdapter
}

func NewRegistry(cfg *config.Config, logger *logrus.Logger) *Registry {
	r := &Registry{
		cfg:    cfg,
		logger: logger,
		chains: make(map[model.PlatformType][]interfaces.SourceAdapter),
	}
	r.initChains()
	return r
}

// initChains 按配置为每个平台装配适配器链
func (r *Registry) initChains() {
	for platformStr, platformCfg := range r.cfg.Platforms {
		if !model.IsValidPlatform(platformStr) {
			r.logger.WithField("platform", platformStr).Error("配置了不支持的平台，跳过")
			continue
		}
		platform := model.PlatformType(platformStr)
		cfg := platformCfg

		var chain []interfaces.SourceAdapter
		for _, sourceName := range cfg.Chain {
			ins := r.buildAdapter(platform, &cfg, model.SourceType(sourceName))
			if ins == nil {
				continue
			}
			chain = append(chain, ins)
		}

		// 保险：配置异常时也保证synthetic兜底在链尾
		if len(chain) == 0 || chain[len(chain)-1].SourceType() != model.SourceSynthetic {
			chain = append(chain, synthetic.NewAdapter(r.logger))
		}

		r.chains[platform] = chain
		r.logger.WithFields(logrus.Fields{
			"platform":  platform,
			"chain_len": len(chain),
		}).Info("平台适配器链装配完成")
	}
}

func (r *Registry) buildAdapter(platform model.PlatformType, cfg *config.PlatformConfig, source model.SourceType) interfaces.SourceAdapter {
	switch source {
	case model.SourceOfficialAPI:
		factory, ok := officialFactories[platform]
		if !ok || cfg.BaseURL == "" {
			r.logger.WithField("platform", platform).Warn("官方API适配器不可用（无工厂或未配置base_url），跳过")
			return nil
		}
		return factory(cfg, r.logger)
	case model.SourceAggregatorAPI:
		if r.cfg.Aggregator.BaseURL == "" || cfg.AggregatorResource == "" {
			r.logger.WithField("platform", platform).Warn("聚合API适配器未配置，跳过")
			return nil
		}
		return aggregator.NewAdapter(&r.cfg.Aggregator, cfg.AggregatorResource, r.logger)
	case model.SourceScraping:
		if cfg.ScrapeURL == "" {
			r.logger.WithField("platform", platform).Warn("抓取适配器未配置scrape_url，跳过")
			return nil
		}
		return scrape.NewAdapter(cfg, r.logger)
	case model.SourceSynthetic:
		return synthetic.NewAdapter(r.logger)
	default:
		r.logger.WithFields(logrus.Fields{
			"platform": platform,
			"source":   source,
		}).Error("未知的适配器类型")
		return nil
	}
}

// Chain 获取指定平台的有序适配器链
func (r *Registry) Chain(platform model.PlatformType) ([]interfaces.SourceAdapter, error) {
	chain, ok := r.chains[platform]
	if !ok {
		return nil, fmt.Errorf("平台%s未装配适配器链", platform)
	}
	return chain, nil
}

// ListPlatforms 所有已装配链的平台（顺序与model.AllPlatforms一致）
func (r *Registry) ListPlatforms() []model.PlatformType {
	var platforms []model.PlatformType
	for _, p := range model.AllPlatforms {
		if _, ok := r.chains[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}
