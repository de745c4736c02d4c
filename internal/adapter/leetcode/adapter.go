package leetcode

import (
	"bytes"
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

// allContestsQuery 拉取全部比赛的GraphQL查询
const allContestsQuery = `{"query":"{ allContests { title titleSlug startTime duration } }"}`

// Adapter LeetCode官方GraphQL适配器
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

// graphqlResponse GraphQL响应外层结构
type graphqlResponse struct {
	Data struct {
		AllContests []model.LeetCodeContest `json:"allContests"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *Adapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	op := string(platform) + "/allContests"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL, bytes.NewBufferString(allContestsQuery))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fetch.WrapTransportError(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭LeetCode响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: resp.Status}
	}

	var body graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &fetch.MalformedResponseError{Op: op, Err: err}
	}
	// GraphQL以200+errors表达API级错误
	if len(body.Errors) > 0 {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: body.Errors[0].Message}
	}

	var raws []*model.RawContest
	for _, c := range body.Data.AllContests {
		raws = append(raws, &model.RawContest{
			Platform: platform,
			Source:   a.SourceType(),
			NativeID: c.TitleSlug,
			Data:     c,
		})
	}

	a.logger.Infof("成功获取LeetCode比赛共%d条", len(raws))
	return raws, nil
}
