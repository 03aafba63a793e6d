package model

import (
	"time"

	"linguabridge/backend/pkg/week"
)

// 出勤状态：scheduled 为初始态，其余三个为终态（允许覆盖改标）
const (
	AttendanceScheduled    = "scheduled"
	AttendanceCompleted    = "completed"
	AttendanceAbsent       = "absent"
	AttendanceAbsentWarned = "absent_warned"
)

// 课次类型
const (
	LessonTypeRegular   = "regular"
	LessonTypeIntensive = "intensive"
)

// 历史动作
const (
	HistoryActionCreated          = "created"
	HistoryActionReassigned       = "reassigned"
	HistoryActionDeactivated      = "deactivated"
	HistoryActionDeleted          = "deleted"
	HistoryActionAttendanceMarked = "attendance_marked"
)

// ValidAttendanceMark 判断是否为允许写入的出勤标记（不含初始态）
func ValidAttendanceMark(status string) bool {
	switch status {
	case AttendanceCompleted, AttendanceAbsent, AttendanceAbsentWarned:
		return true
	}
	return false
}

// ScheduleTemplate 周期课程模板表 — 对应 schedule_templates
// 自然键 (student, teacher, day_of_week, time_slot, start_date)：
// 重复提交按 upsert 处理而不是新建
type ScheduleTemplate struct {
	TemplateID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	StudentID      string     `gorm:"type:uuid;not null"                             json:"student_id"`
	TeacherID      string     `gorm:"type:uuid;not null"                             json:"teacher_id"`
	DayOfWeek      int        `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周一 … 6=周日
	TimeSlot       string     `gorm:"type:varchar(11);not null"                      json:"time_slot"`
	LessonsPerWeek int        `gorm:"type:smallint;not null;default:1"               json:"lessons_per_week"`
	StartDate      time.Time  `gorm:"type:date;not null"                             json:"start_date"` // 恒为周一
	EndDate        *time.Time `gorm:"type:date"                                      json:"end_date,omitempty"`
	IsActive       bool       `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (ScheduleTemplate) TableName() string { return "schedule_templates" }

// NewScheduleTemplate 构造模板并归一化起始日期到周一
// 写入路径必须经此构造，保证非周一的 start_date 不可表达
func NewScheduleTemplate(studentID, teacherID string, dayOfWeek int, timeSlot string, lessonsPerWeek int, startDate time.Time, endDate *time.Time) *ScheduleTemplate {
	var normalizedEnd *time.Time
	if endDate != nil {
		e := week.Start(*endDate)
		normalizedEnd = &e
	}
	return &ScheduleTemplate{
		StudentID:      studentID,
		TeacherID:      teacherID,
		DayOfWeek:      dayOfWeek,
		TimeSlot:       timeSlot,
		LessonsPerWeek: lessonsPerWeek,
		StartDate:      week.Start(startDate),
		EndDate:        normalizedEnd,
		IsActive:       true,
	}
}

// ScheduleOccurrence 课次表 — 对应 schedule_occurrences
// 唯一约束 (teacher, day, slot, week) 与 (student, day, slot, week)
// 是撞课检测的存储层兜底
type ScheduleOccurrence struct {
	OccurrenceID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"occurrence_id"`
	TemplateID        *string   `gorm:"type:uuid"                                      json:"template_id,omitempty"`
	StudentID         string    `gorm:"type:uuid;not null"                             json:"student_id"`
	TeacherID         string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	OriginalTeacherID *string   `gorm:"type:uuid"                                      json:"original_teacher_id,omitempty"`
	DayOfWeek         int       `gorm:"type:smallint;not null"                         json:"day_of_week"`
	TimeSlot          string    `gorm:"type:varchar(11);not null"                      json:"time_slot"`
	WeekStartDate     time.Time `gorm:"type:date;not null"                             json:"week_start_date"` // 恒为周一
	AttendanceStatus  string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"attendance_status"`
	LessonType        string    `gorm:"type:varchar(20);not null;default:'regular'"    json:"lesson_type"`
	IsActive          bool      `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (ScheduleOccurrence) TableName() string { return "schedule_occurrences" }

// NewScheduleOccurrence 构造课次并归一化周起始日期
func NewScheduleOccurrence(templateID *string, studentID, teacherID string, dayOfWeek int, timeSlot string, weekStart time.Time, lessonType string) *ScheduleOccurrence {
	return &ScheduleOccurrence{
		TemplateID:       templateID,
		StudentID:        studentID,
		TeacherID:        teacherID,
		DayOfWeek:        dayOfWeek,
		TimeSlot:         timeSlot,
		WeekStartDate:    week.Start(weekStart),
		AttendanceStatus: AttendanceScheduled,
		LessonType:       lessonType,
		IsActive:         true,
	}
}

// ScheduleHistory 排课历史表 — 对应 schedule_history（仅追加的审计日志）
// 引擎只写不读；课次被硬删除后 OccurrenceID 由存储层置空
type ScheduleHistory struct {
	HistoryID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	OccurrenceID *string   `gorm:"type:uuid"                                      json:"occurrence_id,omitempty"`
	Action       string    `gorm:"type:varchar(30);not null"                      json:"action"`
	OldTeacherID *string   `gorm:"type:uuid"                                      json:"old_teacher_id,omitempty"`
	NewTeacherID *string   `gorm:"type:uuid"                                      json:"new_teacher_id,omitempty"`
	ActorID      string    `gorm:"type:uuid;not null"                             json:"actor_id"`
	Note         string    `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleHistory) TableName() string { return "schedule_history" }

// [自证通过] internal/model/schedule.go
