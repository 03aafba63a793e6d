package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linguabridge/backend/internal/model"
)

// TemplateFilter 模板查询过滤条件
type TemplateFilter struct {
	StudentID  string
	TeacherID  string
	ActiveOnly bool
}

// TemplateRepository 课程模板数据访问接口
type TemplateRepository interface {
	// Upsert 按自然键 (student, teacher, day_of_week, time_slot, start_date)
	// 插入或更新；命中已有行时覆盖 lessons_per_week / end_date 并复活模板
	Upsert(ctx context.Context, tpl *model.ScheduleTemplate) error
	GetByID(ctx context.Context, id string) (*model.ScheduleTemplate, error)
	List(ctx context.Context, filter TemplateFilter) ([]model.ScheduleTemplate, error)
	ListActive(ctx context.Context) ([]model.ScheduleTemplate, error)
	SetActive(ctx context.Context, id string, active bool, updatedBy *string) error
	// UpdateTeacherForStudent 将学生名下所有启用模板换到新教师，返回切换的模板数
	UpdateTeacherForStudent(ctx context.Context, studentID, oldTeacherID, newTeacherID string, updatedBy *string) (int64, error)
	DeactivateByStudent(ctx context.Context, studentID string, updatedBy *string) error
	DeactivateByTeacher(ctx context.Context, teacherID string, updatedBy *string) error
	DeleteByStudent(ctx context.Context, studentID string) error
	DeleteByTeacher(ctx context.Context, teacherID string) error
	// CountActiveDue 统计截止周之前已无排定课次、需要续排的启用模板数
	CountActiveDue(ctx context.Context, cutoff time.Time) (int64, error)
}

type templateRepo struct {
	db *gorm.DB
}

func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Upsert(ctx context.Context, tpl *model.ScheduleTemplate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"},
				{Name: "teacher_id"},
				{Name: "day_of_week"},
				{Name: "time_slot"},
				{Name: "start_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"lessons_per_week", "end_date", "is_active", "updated_at", "updated_by",
			}),
		}, clause.Returning{}).
		Create(tpl).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.ScheduleTemplate, error) {
	var tpl model.ScheduleTemplate
	err := r.db.WithContext(ctx).
		Where("template_id = ?", id).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepo) List(ctx context.Context, filter TemplateFilter) ([]model.ScheduleTemplate, error) {
	var tpls []model.ScheduleTemplate
	q := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Teacher").
		Order("created_at DESC")
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.TeacherID != "" {
		q = q.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&tpls).Error
	return tpls, err
}

func (r *templateRepo) ListActive(ctx context.Context) ([]model.ScheduleTemplate, error) {
	return r.List(ctx, TemplateFilter{ActiveOnly: true})
}

func (r *templateRepo) SetActive(ctx context.Context, id string, active bool, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("template_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
		}).Error
}

func (r *templateRepo) UpdateTeacherForStudent(ctx context.Context, studentID, oldTeacherID, newTeacherID string, updatedBy *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("student_id = ? AND teacher_id = ? AND is_active = ?", studentID, oldTeacherID, true).
		Updates(map[string]interface{}{
			"teacher_id": newTeacherID,
			"updated_by": updatedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *templateRepo) DeactivateByStudent(ctx context.Context, studentID string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}

func (r *templateRepo) DeactivateByTeacher(ctx context.Context, teacherID string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("teacher_id = ? AND is_active = ?", teacherID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}

func (r *templateRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.ScheduleTemplate{}).Error
}

func (r *templateRepo) DeleteByTeacher(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.ScheduleTemplate{}).Error
}

func (r *templateRepo) CountActiveDue(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	sub := r.db.Model(&model.ScheduleOccurrence{}).
		Select("DISTINCT template_id").
		Where("template_id IS NOT NULL AND week_start_date >= ?", cutoff)
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleTemplate{}).
		Where("is_active = ?", true).
		Where("(end_date IS NULL OR end_date >= ?)", cutoff).
		Where("template_id NOT IN (?)", sub).
		Count(&count).Error
	return count, err
}
