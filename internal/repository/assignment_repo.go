package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linguabridge/backend/internal/model"
)

// AssignmentRepository 学生-教师配对数据访问接口
type AssignmentRepository interface {
	// Ensure 保证配对存在且启用：缺失则创建，停用则复活
	Ensure(ctx context.Context, studentID, teacherID string, createdBy *string) error
	Deactivate(ctx context.Context, studentID, teacherID string, updatedBy *string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentTeacherAssignment, error)
	DeactivateByStudent(ctx context.Context, studentID string, updatedBy *string) error
	DeactivateByTeacher(ctx context.Context, teacherID string, updatedBy *string) error
	DeleteByStudent(ctx context.Context, studentID string) error
	DeleteByTeacher(ctx context.Context, teacherID string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Ensure(ctx context.Context, studentID, teacherID string, createdBy *string) error {
	a := &model.StudentTeacherAssignment{
		StudentID: studentID,
		TeacherID: teacherID,
		IsActive:  true,
	}
	a.CreatedBy = createdBy
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"},
				{Name: "teacher_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
		}).
		Create(a).Error
}

func (r *assignmentRepo) Deactivate(ctx context.Context, studentID, teacherID string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentTeacherAssignment{}).
		Where("student_id = ? AND teacher_id = ? AND is_active = ?", studentID, teacherID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}

func (r *assignmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentTeacherAssignment, error) {
	var assignments []model.StudentTeacherAssignment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) DeactivateByStudent(ctx context.Context, studentID string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentTeacherAssignment{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}

func (r *assignmentRepo) DeactivateByTeacher(ctx context.Context, teacherID string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentTeacherAssignment{}).
		Where("teacher_id = ? AND is_active = ?", teacherID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		}).Error
}

func (r *assignmentRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.StudentTeacherAssignment{}).Error
}

func (r *assignmentRepo) DeleteByTeacher(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.StudentTeacherAssignment{}).Error
}
