package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"
	"ContestSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// 占位时间推算参数：解析不出时间的条目按固定节奏排在now之后，而不是丢弃
const (
	placeholderSpacing  = 24 * time.Hour // 相邻占位条目的间隔
	placeholderDuration = 2 * time.Hour  // 占位条目的时长
)

// timeLayouts 各平台列表页常见的时间文本格式
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"02 Jan 2006 15:04",
	"Jan/02/2006 15:04",
	"2006-01-02",
}

// Adapter 页面抓取适配器（尽力而为）
// 空提取/部分提取是携带零或多条的成功，不是失败；只有HTTP调用本身失败才报错。
type Adapter struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	logger     *logrus.Logger

	// Now 可注入时钟，占位时间推算与测试用
	Now func() time.Time
}

func NewAdapter(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
		Now:        time.Now,
	}
}

func (a *Adapter) SourceType() model.SourceType {
	return model.SourceScraping
}

func (a *Adapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	op := string(platform) + "/scrape"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.ScrapeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ContestSync/1.0)")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fetch.WrapTransportError(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭抓取响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.UpstreamError{Op: op, StatusCode: resp.StatusCode, Msg: resp.Status}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		// 页面解析失败按空提取处理（尽力而为），不阻塞回退链推进
		a.logger.WithError(err).WithField("platform", platform).Warn("页面解析失败，按空结果处理")
		return nil, nil
	}

	candidates := extractRows(doc)
	now := a.Now()
	placeholderSeq := 0

	var raws []*model.RawContest
	for _, c := range candidates {
		start, startOK := parseTimeText(c.StartText)
		end, endOK := parseTimeText(c.EndText)
		switch {
		case startOK && endOK && end.After(start):
			c.StartUnix = start.Unix()
			c.EndUnix = end.Unix()
		case startOK:
			// 缺结束时间：按占位时长补齐
			c.StartUnix = start.Unix()
			c.EndUnix = start.Add(placeholderDuration).Unix()
			c.PlaceholderTime = true
		default:
			// 解析不出的日期填充确定性占位排期，保留条目而非静默丢弃
			placeholderSeq++
			ps := now.Truncate(time.Hour).Add(time.Duration(placeholderSeq) * placeholderSpacing)
			c.StartUnix = ps.Unix()
			c.EndUnix = ps.Add(placeholderDuration).Unix()
			c.PlaceholderTime = true
		}
		raws = append(raws, &model.RawContest{
			Platform: platform,
			Source:   a.SourceType(),
			Data:     c,
		})
	}

	a.logger.WithFields(logrus.Fields{
		"platform":    platform,
		"count":       len(raws),
		"placeholder": placeholderSeq,
	}).Info("页面抓取完成")
	return raws, nil
}

// extractRows 结构化遍历：取含链接的表格行作为候选比赛块
// 约定：第一个<a>文本为比赛名，其href为链接，其余单元格文本尝试按时间解析
func extractRows(doc *html.Node) []model.ScrapedContest {
	var out []model.ScrapedContest
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if c, ok := rowToContest(n); ok {
				out = append(out, c)
			}
			return // 行内不再深入
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out
}

func rowToContest(tr *html.Node) (model.ScrapedContest, bool) {
	var c model.ScrapedContest
	var cellTexts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && c.Name == "" {
			c.Name = strings.TrimSpace(nodeText(n))
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					c.URL = attr.Val
				}
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			if t := strings.TrimSpace(nodeText(n)); t != "" {
				cellTexts = append(cellTexts, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(tr)

	if c.Name == "" {
		return c, false
	}
	// 从单元格文本里按顺序挑出可解析的时间候选
	for _, t := range cellTexts {
		if _, ok := parseTimeText(t); !ok {
			continue
		}
		if c.StartText == "" {
			c.StartText = t
		} else if c.EndText == "" {
			c.EndText = t
			break
		}
	}
	return c, true
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(nodeText(child))
	}
	return sb.String()
}

// parseTimeText 多格式时间文本解析（统一按UTC处理无时区文本）
func parseTimeText(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
