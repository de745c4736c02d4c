package model

// RawContest 所有来源的原始比赛通用包装
// Data 为来源原生结构（CodeforcesContest/LeetCodeContest/...），只允许Normalizer消费
type RawContest struct {
	Platform PlatformType // 所属平台
	Source   SourceType   // 产出该条的适配器类型
	NativeID string       // 来源原生ID（可为空，scraping兜底时由Normalizer派生）
	Data     interface{}  // 来源原生数据
}

// CodeforcesContest Codeforces官方API contest.list 返回的单条结构
type CodeforcesContest struct {
	ID                  int64  `json:"id"`                  // 平台数字ID
	Name                string `json:"name"`                // 比赛名称
	Type                string `json:"type"`                // CF/IOI/ICPC
	Phase               string `json:"phase"`               // BEFORE/CODING/FINISHED
	DurationSeconds     int64  `json:"durationSeconds"`     // 时长（秒）
	StartTimeSeconds    int64  `json:"startTimeSeconds"`    // 开始时间（unix秒）
	RelativeTimeSeconds int64  `json:"relativeTimeSeconds"` // 相对当前时间（秒，可为负）
}

// LeetCodeContest LeetCode GraphQL allContests 返回的单条结构
type LeetCodeContest struct {
	Title     string `json:"title"`     // 比赛标题
	TitleSlug string `json:"titleSlug"` // 稳定slug（weekly-contest-400）
	StartTime int64  `json:"startTime"` // 开始时间（unix秒）
	Duration  int64  `json:"duration"`  // 时长（秒）
}

// CodeChefContest CodeChef官方API返回的单条结构
type CodeChefContest struct {
	ContestCode      string `json:"contest_code"`       // 稳定代码（START123）
	ContestName      string `json:"contest_name"`       // 比赛名称
	ContestStartDate string `json:"contest_start_date"` // ISO时间字符串
	ContestEndDate   string `json:"contest_end_date"`   // ISO时间字符串
}

// AggregatorContest 第三方聚合API返回的单条结构（平台无关统一字段）
type AggregatorContest struct {
	ID       int64  `json:"id"`       // 聚合站内ID（不作为稳定键）
	Event    string `json:"event"`    // 比赛名称
	Href     string `json:"href"`     // 比赛链接
	Resource string `json:"resource"` // 来源站点域名
	Start    string `json:"start"`    // 开始时间（ISO）
	End      string `json:"end"`      // 结束时间（ISO）
	Duration int64  `json:"duration"` // 时长（秒）
}

// ScrapedContest 页面抓取提取出的候选比赛块
// 时间解析失败时 StartText/EndText 留空，由适配器填充占位时间并置 PlaceholderTime
type ScrapedContest struct {
	Name            string // 提取的比赛名称
	URL             string // 提取的链接（可为空）
	StartText       string // 原始开始时间文本
	EndText         string // 原始结束时间文本
	PlaceholderTime bool   // 时间为占位推算（非权威）
	StartUnix       int64  // 解析/占位后的开始时间（unix秒）
	EndUnix         int64  // 解析/占位后的结束时间（unix秒）
}

// SyntheticContest 合成适配器产出的兜底比赛
type SyntheticContest struct {
	Seq       int    // 平台内序号（稳定）
	Name      string // 生成的比赛名称
	URL       string // 平台主页链接
	StartUnix int64  // 开始时间（unix秒）
	EndUnix   int64  // 结束时间（unix秒）
}
