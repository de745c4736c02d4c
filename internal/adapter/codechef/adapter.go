package codechef

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"
	"ContestSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Adapter CodeChef官方API适配器（list/contests/all接口）
type Adapter struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

func (a *Adapter) SourceType() model.SourceType {
	return model.SourceOfficialAPI
}

// contestsResponse 接口按进行中/未开始/已结束分组返回
type contestsResponse struct {
	Status          string                  `json:"status"` // success/error
	Message         string                  `json:"message"`
	PresentContests []model.CodeChefContest `json:"present_contests"`
	FutureContests  []model.CodeChefContest `json:"future_contests"`
	PastContests    []model.CodeChefContest `json:"past_contests"`
}

func (a *Adapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	op := string(platform) + "/contests"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fetch.WrapTransportError(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭CodeChef响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: resp.Status}
	}

	var body contestsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &fetch.MalformedResponseError{Op: op, Err: err}
	}
	if body.Status != "success" {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: body.Message}
	}

	// 进行中+未开始+已结束全部收集，状态由Normalizer按时间派生
	var raws []*model.RawContest
	for _, group := range [][]model.CodeChefContest{body.PresentContests, body.FutureContests, body.PastContests} {
		for _, c := range group {
			raws = append(raws, &model.RawContest{
				Platform: platform,
				Source:   a.SourceType(),
				NativeID: c.ContestCode,
				Data:     c,
			})
		}
	}

	a.logger.Infof("成功获取CodeChef比赛共%d条", len(raws))
	return raws, nil
}
