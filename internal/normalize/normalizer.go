package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// codechefTimeLayouts CodeChef时间字符串的常见格式
var codechefTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02 Jan 2006 15:04:05",
}

// aggregatorTimeLayouts 聚合API的ISO时间格式
var aggregatorTimeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Normalizer 原始比赛→规范化记录的转换器
// 职责：绝对时间解析、稳定ID派生、时长核算、类别启发式标注
// 原始结构不允许越过这里泄漏到下游
type Normalizer struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeBatch 批量转换，单条失败跳过不中断
func (n *Normalizer) NormalizeBatch(raws []*model.RawContest, now time.Time) []*model.Contest {
	contests := make([]*model.Contest, 0, len(raws))
	for _, raw := range raws {
		c, err := n.Normalize(raw, now)
		if err != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{
				"platform": raw.Platform,
				"source":   raw.Source,
			}).Warn("单条规范化失败，跳过")
			continue
		}
		contests = append(contests, c)
	}
	return contests
}

// Normalize 转换单条原始比赛
// 稳定ID只由来源稳定字段派生（平台+原生ID，抓取兜底用规范化名称哈希），与批次位置和抓取时间无关
func (n *Normalizer) Normalize(raw *model.RawContest, now time.Time) (*model.Contest, error) {
	var c *model.Contest
	var err error

	switch data := raw.Data.(type) {
	case model.CodeforcesContest:
		c, err = n.fromCodeforces(raw.Platform, data)
	case model.LeetCodeContest:
		c, err = n.fromLeetCode(raw.Platform, data)
	case model.CodeChefContest:
		c, err = n.fromCodeChef(raw.Platform, data)
	case model.AggregatorContest:
		c, err = n.fromAggregator(raw.Platform, data)
	case model.ScrapedContest:
		c, err = n.fromScraped(raw.Platform, data)
	case model.SyntheticContest:
		c, err = n.fromSynthetic(raw.Platform, data)
	default:
		return nil, fmt.Errorf("未知的原始数据类型: %T", raw.Data)
	}
	if err != nil {
		return nil, err
	}

	// 统一校验与派生字段
	if !c.EndTime.After(c.StartTime) {
		return nil, fmt.Errorf("时间不合法: start=%v end=%v", c.StartTime, c.EndTime)
	}
	c.StartTime = c.StartTime.UTC()
	c.EndTime = c.EndTime.UTC()
	c.DurationMinutes = int(math.Round(c.EndTime.Sub(c.StartTime).Minutes()))
	c.Source = raw.Source
	c.FetchedAt = now.UTC()
	c.IsActive = c.Status(now) != model.StatusEnded
	return c, nil
}

func (n *Normalizer) fromCodeforces(platform model.PlatformType, data model.CodeforcesContest) (*model.Contest, error) {
	if data.ID == 0 || data.StartTimeSeconds == 0 {
		return nil, fmt.Errorf("codeforces条目缺少ID或开始时间: %q", data.Name)
	}
	start := time.Unix(data.StartTimeSeconds, 0).UTC()
	return &model.Contest{
		StableID:  StableID(platform, fmt.Sprintf("%d", data.ID)),
		Platform:  platform,
		Name:      data.Name,
		URL:       fmt.Sprintf("https://codeforces.com/contest/%d", data.ID),
		StartTime: start,
		EndTime:   start.Add(time.Duration(data.DurationSeconds) * time.Second),
		Metadata: mustJSON(map[string]interface{}{
			"type":     data.Type,
			"phase":    data.Phase,
			"category": classify(data.Name),
		}),
	}, nil
}

func (n *Normalizer) fromLeetCode(platform model.PlatformType, data model.LeetCodeContest) (*model.Contest, error) {
	if data.TitleSlug == "" || data.StartTime == 0 {
		return nil, fmt.Errorf("leetcode条目缺少slug或开始时间: %q", data.Title)
	}
	start := time.Unix(data.StartTime, 0).UTC()
	return &model.Contest{
		StableID:  StableID(platform, data.TitleSlug),
		Platform:  platform,
		Name:      data.Title,
		URL:       fmt.Sprintf("https://leetcode.com/contest/%s/", data.TitleSlug),
		StartTime: start,
		EndTime:   start.Add(time.Duration(data.Duration) * time.Second),
		Metadata: mustJSON(map[string]interface{}{
			"category": classify(data.Title),
		}),
	}, nil
}

func (n *Normalizer) fromCodeChef(platform model.PlatformType, data model.CodeChefContest) (*model.Contest, error) {
	if data.ContestCode == "" {
		return nil, fmt.Errorf("codechef条目缺少contest_code: %q", data.ContestName)
	}
	start, err := parseWithLayouts(data.ContestStartDate, codechefTimeLayouts)
	if err != nil {
		return nil, fmt.Errorf("codechef开始时间解析失败: %w", err)
	}
	end, err := parseWithLayouts(data.ContestEndDate, codechefTimeLayouts)
	if err != nil {
		return nil, fmt.Errorf("codechef结束时间解析失败: %w", err)
	}
	return &model.Contest{
		StableID:  StableID(platform, data.ContestCode),
		Platform:  platform,
		Name:      data.ContestName,
		URL:       fmt.Sprintf("https://www.codechef.com/%s", data.ContestCode),
		StartTime: start,
		EndTime:   end,
		Metadata: mustJSON(map[string]interface{}{
			"contest_code": data.ContestCode,
			"category":     classify(data.ContestName),
		}),
	}, nil
}

func (n *Normalizer) fromAggregator(platform model.PlatformType, data model.AggregatorContest) (*model.Contest, error) {
	start, err := parseWithLayouts(data.Start, aggregatorTimeLayouts)
	if err != nil {
		return nil, fmt.Errorf("聚合条目开始时间解析失败: %w", err)
	}
	var end time.Time
	if data.End != "" {
		end, err = parseWithLayouts(data.End, aggregatorTimeLayouts)
		if err != nil {
			return nil, fmt.Errorf("聚合条目结束时间解析失败: %w", err)
		}
	} else {
		end = start.Add(time.Duration(data.Duration) * time.Second)
	}

	// 稳定键优先取平台原生ID（href尾段），与官方API产出的同一场比赛归并为一条；
	// 取不到时退回规范化名称哈希。聚合站内ID随站点变化，不可作为稳定键。
	nativeID := nativeIDFromHref(data.Href)
	var stableID string
	if nativeID != "" {
		stableID = StableID(platform, nativeID)
	} else {
		stableID = HashedNameID(platform, data.Event)
	}

	url := data.Href
	if url != "" && !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	return &model.Contest{
		StableID:  stableID,
		Platform:  platform,
		Name:      data.Event,
		URL:       url,
		StartTime: start,
		EndTime:   end,
		Metadata: mustJSON(map[string]interface{}{
			"resource": data.Resource,
			"category": classify(data.Event),
		}),
	}, nil
}

func (n *Normalizer) fromScraped(platform model.PlatformType, data model.ScrapedContest) (*model.Contest, error) {
	if data.Name == "" {
		return nil, fmt.Errorf("抓取条目缺少名称")
	}
	meta := map[string]interface{}{
		"category": classify(data.Name),
	}
	// 占位时间显式标注，下游可区分权威与推算排期
	if data.PlaceholderTime {
		meta["placeholder_time"] = true
	}
	return &model.Contest{
		StableID:  HashedNameID(platform, data.Name),
		Platform:  platform,
		Name:      data.Name,
		URL:       data.URL,
		StartTime: time.Unix(data.StartUnix, 0).UTC(),
		EndTime:   time.Unix(data.EndUnix, 0).UTC(),
		Metadata:  mustJSON(meta),
	}, nil
}

func (n *Normalizer) fromSynthetic(platform model.PlatformType, data model.SyntheticContest) (*model.Contest, error) {
	return &model.Contest{
		StableID:  StableID(platform, fmt.Sprintf("synthetic-%d", data.Seq)),
		Platform:  platform,
		Name:      data.Name,
		URL:       data.URL,
		StartTime: time.Unix(data.StartUnix, 0).UTC(),
		EndTime:   time.Unix(data.EndUnix, 0).UTC(),
		Metadata: mustJSON(map[string]interface{}{
			"synthetic": true,
			"category":  classify(data.Name),
		}),
	}, nil
}

// StableID 平台限定稳定键：平台名+原生ID
func StableID(platform model.PlatformType, nativeID string) string {
	return fmt.Sprintf("%s-%s", platform, nativeID)
}

// HashedNameID 无原生ID时的稳定键：规范化名称哈希（确定性，与批次位置无关）
func HashedNameID(platform model.PlatformType, name string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", platform, normalizeName(name))))
	return fmt.Sprintf("%s-n-%s", platform, hex.EncodeToString(h[:])[:16])
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9\s]+`)
var multiSpace = regexp.MustCompile(`\s+`)

func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphaNum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// nativeIDFromHref 从比赛链接尾段提取平台原生ID
func nativeIDFromHref(href string) string {
	href = strings.TrimRight(strings.TrimSpace(href), "/")
	if href == "" {
		return ""
	}
	idx := strings.LastIndex(href, "/")
	if idx < 0 || idx == len(href)-1 {
		return ""
	}
	return href[idx+1:]
}

// classify 比赛类别启发式（对名称的尽力而为分类，非权威）
func classify(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "div. 1") || strings.Contains(lower, "div.1") || strings.Contains(lower, "division 1"):
		return "div1"
	case strings.Contains(lower, "div. 2") || strings.Contains(lower, "div.2") || strings.Contains(lower, "division 2"):
		return "div2"
	case strings.Contains(lower, "div. 3") || strings.Contains(lower, "div.3"):
		return "div3"
	case strings.Contains(lower, "div. 4") || strings.Contains(lower, "div.4"):
		return "div4"
	case strings.Contains(lower, "educational"):
		return "educational"
	case strings.Contains(lower, "biweekly"):
		return "biweekly"
	case strings.Contains(lower, "weekly"):
		return "weekly"
	case strings.Contains(lower, "starters"):
		return "starters"
	case strings.Contains(lower, "long"):
		return "long"
	case strings.Contains(lower, "cook"):
		return "cookoff"
	case strings.Contains(lower, "lunchtime"):
		return "lunchtime"
	case strings.Contains(lower, "beginner"):
		return "beginner"
	case strings.Contains(lower, "grand"):
		return "grand"
	case strings.Contains(lower, "heuristic"):
		return "heuristic"
	default:
		return "regular"
	}
}

func parseWithLayouts(text string, layouts []string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("时间文本为空")
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func mustJSON(m map[string]interface{}) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
