package repository

import (
	"context"

	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
)

// TimeSlotRepository 时段目录数据访问接口
type TimeSlotRepository interface {
	// ListActive 返回启用的时段，按 sort_order 升序（顺序分配策略依赖该顺序）
	ListActive(ctx context.Context) ([]model.TimeSlot, error)
	List(ctx context.Context) ([]model.TimeSlot, error)
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	Update(ctx context.Context, slot *model.TimeSlot) error
}

type timeSlotRepo struct {
	db *gorm.DB
}

func NewTimeSlotRepo(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepo{db: db}
}

func (r *timeSlotRepo) ListActive(ctx context.Context) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("time_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *timeSlotRepo) Update(ctx context.Context, slot *model.TimeSlot) error {
	return r.db.WithContext(ctx).
		Model(slot).
		Where("time_slot_id = ?", slot.TimeSlotID).
		Updates(map[string]interface{}{
			"is_active":  slot.IsActive,
			"updated_by": slot.UpdatedBy,
		}).Error
}
