package repository

import (
	"context"

	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
)

// HistoryFilter 历史查询过滤条件
type HistoryFilter struct {
	OccurrenceID string
	Action       string
	Page         int
	PageSize     int
}

// HistoryRepository 排课历史数据访问接口（仅追加）
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.ScheduleHistory) error
	BatchCreate(ctx context.Context, entries []*model.ScheduleHistory) error
	List(ctx context.Context, filter HistoryFilter) ([]model.ScheduleHistory, int64, error)
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, entry *model.ScheduleHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepo) BatchCreate(ctx context.Context, entries []*model.ScheduleHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, 100).Error
}

func (r *historyRepo) List(ctx context.Context, filter HistoryFilter) ([]model.ScheduleHistory, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ScheduleHistory{})
	if filter.OccurrenceID != "" {
		q = q.Where("occurrence_id = ?", filter.OccurrenceID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ScheduleHistory
	offset := (filter.Page - 1) * filter.PageSize
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&entries).Error
	return entries, total, err
}
