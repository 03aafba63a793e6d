package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
	pkgerrors "linguabridge/backend/pkg/errors"
)

// OccurrenceFilter 课次查询过滤条件
type OccurrenceFilter struct {
	StudentID  string
	TeacherID  string
	WeekStart  *time.Time
	ActiveOnly bool
}

// OccurrenceRepository 课次数据访问接口
type OccurrenceRepository interface {
	Create(ctx context.Context, occ *model.ScheduleOccurrence) error
	BatchCreate(ctx context.Context, occs []*model.ScheduleOccurrence) error
	GetByID(ctx context.Context, id string) (*model.ScheduleOccurrence, error)
	List(ctx context.Context, filter OccurrenceFilter) ([]model.ScheduleOccurrence, error)
	ListByTemplate(ctx context.Context, templateID string) ([]model.ScheduleOccurrence, error)
	ListByStudentAndTeacher(ctx context.Context, studentID, teacherID string) ([]model.ScheduleOccurrence, error)
	// GetStudentAt / GetTeacherAt 用于撞课检测，未命中返回 (nil, nil)
	GetStudentAt(ctx context.Context, studentID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error)
	GetTeacherAt(ctx context.Context, teacherID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error)
	// LatestWeekByTemplate 返回模板已排课次的最大周起始日期，无课次返回 (nil, nil)
	LatestWeekByTemplate(ctx context.Context, templateID string) (*time.Time, error)
	// UpdateAttendance 带版本号 CAS 更新出勤状态，版本不匹配返回 ErrOptimisticLock
	UpdateAttendance(ctx context.Context, id, status string, version int, updatedBy *string) error
	// UpdateTeacher 带版本号 CAS 换教师并记录原教师
	UpdateTeacher(ctx context.Context, id, newTeacherID string, originalTeacherID *string, version int, updatedBy *string) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	ListFutureByStudent(ctx context.Context, studentID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error)
	ListFutureByTeacher(ctx context.Context, teacherID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error)
	DeleteByStudent(ctx context.Context, studentID string) error
	DeleteByTeacher(ctx context.Context, teacherID string) error
	// ClearOriginalTeacher 清除换教师后仍指向某教师的原教师引用（教师硬删除前调用）
	ClearOriginalTeacher(ctx context.Context, teacherID string) error
	// DetachTemplates 将引用给定模板的课次的模板引用置空（模板删除前解除 RESTRICT）
	DetachTemplates(ctx context.Context, templateIDs []string) error
}

type occurrenceRepo struct {
	db *gorm.DB
}

func NewOccurrenceRepo(db *gorm.DB) OccurrenceRepository {
	return &occurrenceRepo{db: db}
}

func (r *occurrenceRepo) Create(ctx context.Context, occ *model.ScheduleOccurrence) error {
	return r.db.WithContext(ctx).Create(occ).Error
}

func (r *occurrenceRepo) BatchCreate(ctx context.Context, occs []*model.ScheduleOccurrence) error {
	if len(occs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(occs, 100).Error
}

func (r *occurrenceRepo) GetByID(ctx context.Context, id string) (*model.ScheduleOccurrence, error) {
	var occ model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("occurrence_id = ?", id).
		First(&occ).Error
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *occurrenceRepo) List(ctx context.Context, filter OccurrenceFilter) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	q := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Teacher").
		Order("week_start_date ASC, day_of_week ASC, time_slot ASC")
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.TeacherID != "" {
		q = q.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.WeekStart != nil {
		q = q.Where("week_start_date = ?", *filter.WeekStart)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&occs).Error
	return occs, err
}

func (r *occurrenceRepo) ListByTemplate(ctx context.Context, templateID string) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("week_start_date ASC, day_of_week ASC, time_slot ASC").
		Find(&occs).Error
	return occs, err
}

func (r *occurrenceRepo) ListByStudentAndTeacher(ctx context.Context, studentID, teacherID string) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND teacher_id = ?", studentID, teacherID).
		Order("week_start_date ASC, day_of_week ASC, time_slot ASC").
		Find(&occs).Error
	return occs, err
}

func (r *occurrenceRepo) GetStudentAt(ctx context.Context, studentID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error) {
	var occ model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND day_of_week = ? AND time_slot = ? AND week_start_date = ?",
			studentID, dayOfWeek, timeSlot, weekStart).
		First(&occ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *occurrenceRepo) GetTeacherAt(ctx context.Context, teacherID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error) {
	var occ model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND day_of_week = ? AND time_slot = ? AND week_start_date = ?",
			teacherID, dayOfWeek, timeSlot, weekStart).
		First(&occ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *occurrenceRepo) LatestWeekByTemplate(ctx context.Context, templateID string) (*time.Time, error) {
	var occ model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("week_start_date DESC").
		First(&occ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w := occ.WeekStartDate
	return &w, nil
}

func (r *occurrenceRepo) UpdateAttendance(ctx context.Context, id, status string, version int, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleOccurrence{}).
		Where("occurrence_id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"attendance_status": status,
			"version":           version + 1,
			"updated_by":        updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *occurrenceRepo) UpdateTeacher(ctx context.Context, id, newTeacherID string, originalTeacherID *string, version int, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleOccurrence{}).
		Where("occurrence_id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"teacher_id":          newTeacherID,
			"original_teacher_id": originalTeacherID,
			"version":             version + 1,
			"updated_by":          updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *occurrenceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("occurrence_id = ?", id).
		Delete(&model.ScheduleOccurrence{}).Error
}

func (r *occurrenceRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("occurrence_id IN ?", ids).
		Delete(&model.ScheduleOccurrence{}).Error
}

func (r *occurrenceRepo) ListFutureByStudent(ctx context.Context, studentID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND week_start_date >= ?", studentID, fromWeek).
		Order("week_start_date ASC, day_of_week ASC, time_slot ASC").
		Find(&occs).Error
	return occs, err
}

func (r *occurrenceRepo) ListFutureByTeacher(ctx context.Context, teacherID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error) {
	var occs []model.ScheduleOccurrence
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND week_start_date >= ?", teacherID, fromWeek).
		Order("week_start_date ASC, day_of_week ASC, time_slot ASC").
		Find(&occs).Error
	return occs, err
}

func (r *occurrenceRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.ScheduleOccurrence{}).Error
}

func (r *occurrenceRepo) DeleteByTeacher(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.ScheduleOccurrence{}).Error
}

func (r *occurrenceRepo) ClearOriginalTeacher(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleOccurrence{}).
		Where("original_teacher_id = ?", teacherID).
		Update("original_teacher_id", nil).Error
}

func (r *occurrenceRepo) DetachTemplates(ctx context.Context, templateIDs []string) error {
	if len(templateIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.ScheduleOccurrence{}).
		Where("template_id IN ?", templateIDs).
		Update("template_id", nil).Error
}
