package model

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformType 平台类型枚举（固定小写）
type PlatformType string

const (
	PlatformCodeforces PlatformType = "codeforces"
	PlatformLeetCode   PlatformType = "leetcode"
	PlatformCodeChef   PlatformType = "codechef"
	PlatformAtCoder    PlatformType = "atcoder"
)

// AllPlatforms 所有支持的平台（遍历顺序固定）
var AllPlatforms = []PlatformType{
	PlatformCodeforces,
	PlatformLeetCode,
	PlatformCodeChef,
	PlatformAtCoder,
}

// IsValidPlatform 校验平台名是否受支持
func IsValidPlatform(name string) bool {
	for _, p := range AllPlatforms {
		if string(p) == name {
			return true
		}
	}
	return false
}

// SourceType 数据来源类型（哪种适配器产出的记录）
type SourceType string

const (
	SourceOfficialAPI   SourceType = "official-api"
	SourceAggregatorAPI SourceType = "aggregator-api"
	SourceScraping      SourceType = "scraping"
	SourceSynthetic     SourceType = "synthetic"
)

// ContestStatus 比赛状态（读取时派生，不落库）
type ContestStatus string

const (
	StatusUpcoming ContestStatus = "upcoming"
	StatusOngoing  ContestStatus = "ongoing"
	StatusEnded    ContestStatus = "ended"
)

// Contest 规范化比赛记录（所有平台统一结构，stable_id 为幂等upsert键）
type Contest struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	StableID        string         `gorm:"column:stable_id;type:varchar(128);uniqueIndex;not null;comment:平台限定的稳定去重键"`
	Platform        PlatformType   `gorm:"column:platform;type:varchar(32);index;not null;comment:来源平台"`
	Name            string         `gorm:"column:name;type:varchar(256);not null;comment:比赛名称"`
	URL             string         `gorm:"column:url;type:varchar(512);comment:比赛链接"`
	StartTime       time.Time      `gorm:"column:start_time;type:timestamp;index;not null;comment:开始时间(UTC)"`
	EndTime         time.Time      `gorm:"column:end_time;type:timestamp;not null;comment:结束时间(UTC)"`
	DurationMinutes int            `gorm:"column:duration_minutes;type:int;not null;comment:时长(分钟)"`
	IsActive        bool           `gorm:"column:is_active;type:boolean;default:true;comment:是否未结束"`
	Source          SourceType     `gorm:"column:source;type:varchar(32);not null;comment:产出该记录的适配器类型"`
	FetchedAt       time.Time      `gorm:"column:fetched_at;type:timestamp;not null;comment:抓取时间"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb;comment:平台附加信息(类型/描述等)"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Contest) TableName() string { return "contests" }

// Status 按给定时刻派生比赛状态
func (c *Contest) Status(now time.Time) ContestStatus {
	if now.Before(c.StartTime) {
		return StatusUpcoming
	}
	if now.After(c.EndTime) {
		return StatusEnded
	}
	return StatusOngoing
}

// TimeUntilStart 距开赛时长，已开赛返回0
func (c *Contest) TimeUntilStart(now time.Time) time.Duration {
	if d := c.StartTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ContestView 对外输出结构（在落库字段上附加派生字段）
type ContestView struct {
	Contest
	Status            ContestStatus `json:"status"`
	TimeUntilStartSec int64         `json:"time_until_start_sec"`
}

// NewContestView 构造带派生字段的输出结构
func NewContestView(c *Contest, now time.Time) ContestView {
	return ContestView{
		Contest:           *c,
		Status:            c.Status(now),
		TimeUntilStartSec: int64(c.TimeUntilStart(now).Seconds()),
	}
}
