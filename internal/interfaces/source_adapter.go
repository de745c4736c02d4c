package interfaces

import (
	"context"
	"time"

	"ContestSync/internal/model"
)

// SourceAdapter 所有数据来源必须实现的核心接口
type SourceAdapter interface {
	SourceType() model.SourceType                                                             // 适配器类型（official-api/aggregator-api/scraping/synthetic）
	FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) // 拉取比赛列表
}

// ContestFilter 比赛查询筛选条件
type ContestFilter struct {
	Platform   model.PlatformType // 按平台筛选，空则全部
	OnlyActive bool               // 仅未结束
	FromTime   *time.Time         // 开始时间起
	ToTime     *time.Time         // 开始时间止
}

// ContestRepository 比赛落库通用接口（按stable_id幂等upsert）
type ContestRepository interface {
	Upsert(ctx context.Context, contest *model.Contest) error
	// UpsertBatch 逐条写入，单条失败跳过不中断，返回成功条数
	UpsertBatch(ctx context.Context, contests []*model.Contest) (int, error)
	Find(ctx context.Context, filter ContestFilter) ([]*model.Contest, error)
	// DeleteEndedBefore 清理结束时间早于cutoff的已结束比赛，返回删除条数
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
