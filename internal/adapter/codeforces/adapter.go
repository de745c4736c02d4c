package codeforces

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

// Adapter Codeforces官方API适配器（contest.list接口）
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

// contestListResponse contest.list 响应外层结构
type contestListResponse struct {
	Status  string                    `json:"status"` // OK/FAILED
	Comment string                    `json:"comment"`
	Result  []model.CodeforcesContest `json:"result"`
}

func (a *Adapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	op := string(platform) + "/contest.list"
	listURL := fmt.Sprintf("%s/contest.list?gym=false", a.cfg.BaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fetch.WrapTransportError(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭Codeforces响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: resp.Status}
	}

	var body contestListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &fetch.MalformedResponseError{Op: op, Err: err}
	}
	// Codeforces以200+status=FAILED表达API级错误
	if body.Status != "OK" {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: body.Comment}
	}

	var raws []*model.RawContest
	for _, c := range body.Result {
		raws = append(raws, &model.RawContest{
			Platform: platform,
			Source:   a.SourceType(),
			NativeID: fmt.Sprintf("%d", c.ID),
			Data:     c,
		})
	}

	a.logger.Infof("成功获取Codeforces比赛共%d条", len(raws))
	return raws, nil
}
