package repository

import (
	"context"

	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
)

// ReportRepository 课时报告数据访问接口
// 报告的创建与查询属于外部报告模块，这里只承担硬删除时的级联清理
type ReportRepository interface {
	DeleteByStudent(ctx context.Context, studentID string) error
	DeleteByTeacher(ctx context.Context, teacherID string) error
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.LessonReport{}).Error
}

func (r *reportRepo) DeleteByTeacher(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.LessonReport{}).Error
}
