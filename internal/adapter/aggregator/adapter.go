package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"
	"ContestSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Adapter 第三方聚合API适配器
// 一个聚合入口服务所有平台，按resource标识筛选；作为官方API之后、scraping之前的统一回退。
type Adapter struct {
	cfg        *config.AggregatorConfig
	resource   string // 该平台在聚合API中的resource标识（如codeforces.com）
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg *config.AggregatorConfig, resource string, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		resource:   resource,
		httpClient: httpclient.NewAggregatorClient(cfg, logger),
		logger:     logger,
	}
}

func (a *Adapter) SourceType() model.SourceType {
	return model.SourceAggregatorAPI
}

// listResponse 聚合API列表响应外层结构
type listResponse struct {
	Objects []model.AggregatorContest `json:"objects"`
}

func (a *Adapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	op := string(platform) + "/aggregator"
	listURL := fmt.Sprintf("%s/contest/?resource=%s&order_by=start&limit=200", a.cfg.BaseURL, url.QueryEscape(a.resource))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "ApiKey "+a.cfg.APIKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fetch.WrapTransportError(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭聚合API响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: resp.Status}
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &fetch.MalformedResponseError{Op: op, Err: err}
	}

	var raws []*model.RawContest
	for _, c := range body.Objects {
		raws = append(raws, &model.RawContest{
			Platform: platform,
			Source:   a.SourceType(),
			NativeID: fmt.Sprintf("%d", c.ID),
			Data:     c,
		})
	}

	a.logger.WithFields(logrus.Fields{
		"platform": platform,
		"count":    len(raws),
	}).Info("聚合API拉取完成")
	return raws, nil
}
