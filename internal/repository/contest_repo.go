package repository

import (
	"context"
	"fmt"
	"time"

	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersistenceError 单条记录落库失败
type PersistenceError struct {
	StableID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("记录%s落库失败: %v", e.StableID, e.Err)
}
func (e *PersistenceError) Unwrap() error { return e.Err }

// ContestRepository 比赛仓储（gorm实现）
// stable_id为平台限定键，跨平台并发upsert天然无冲突
type ContestRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewContestRepository(db *gorm.DB, logger *logrus.Logger) interfaces.ContestRepository {
	return &ContestRepository{db: db, logger: logger}
}

// contestMutableColumns upsert时允许覆盖的可变列（created_at等创建簿记保持不动）
var contestMutableColumns = []string{
	"name", "url", "start_time", "end_time", "duration_minutes",
	"is_active", "source", "fetched_at", "metadata", "updated_at",
}

// Upsert 按stable_id插入或更新（幂等，绝不产生重复记录）
func (r *ContestRepository) Upsert(ctx context.Context, contest *model.Contest) error {
	contest.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stable_id"}},
		DoUpdates: clause.AssignmentColumns(contestMutableColumns),
	}).Create(contest).Error; err != nil {
		return &PersistenceError{StableID: contest.StableID, Err: err}
	}
	return nil
}

// UpsertBatch 逐条写入，单条失败记日志跳过不中断，返回成功条数
func (r *ContestRepository) UpsertBatch(ctx context.Context, contests []*model.Contest) (int, error) {
	saved := 0
	for _, c := range contests {
		if err := r.Upsert(ctx, c); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"stable_id": c.StableID,
				"platform":  c.Platform,
			}).Warn("单条upsert失败，跳过")
			continue
		}
		saved++
	}
	return saved, nil
}

// Find 按筛选条件查询，开始时间升序
func (r *ContestRepository) Find(ctx context.Context, filter interfaces.ContestFilter) ([]*model.Contest, error) {
	db := r.db.WithContext(ctx).Model(&model.Contest{})
	if filter.Platform != "" {
		db = db.Where("platform = ?", filter.Platform)
	}
	if filter.OnlyActive {
		db = db.Where("is_active = ?", true)
	}
	if filter.FromTime != nil {
		db = db.Where("start_time >= ?", *filter.FromTime)
	}
	if filter.ToTime != nil {
		db = db.Where("start_time <= ?", *filter.ToTime)
	}
	var contests []*model.Contest
	if err := db.Order("start_time ASC").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// DeleteEndedBefore 保留期清理：删除结束时间早于cutoff的已结束比赛
func (r *ContestRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("end_time < ?", cutoff).
		Delete(&model.Contest{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
