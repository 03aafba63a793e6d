package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/service"
	pkgerrors "linguabridge/backend/pkg/errors"
	"linguabridge/backend/pkg/response"
)

// ScheduleHandler 排课模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateTemplate 创建或更新课程模板并物化近期课次
// POST /api/v1/schedules/templates
func (h *ScheduleHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.CreateOrUpdateTemplate(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeactivateTemplate 停用课程模板
// POST /api/v1/schedules/templates/:id/deactivate
func (h *ScheduleHandler) DeactivateTemplate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "模板ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.DeactivateTemplate(c.Request.Context(), id, callerID); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListTemplates 课程模板列表
// GET /api/v1/schedules/templates
func (h *ScheduleHandler) ListTemplates(c *gin.Context) {
	var req dto.TemplateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	templates, err := h.scheduleSvc.ListTemplates(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": templates})
}

// ListOccurrences 课次列表
// GET /api/v1/schedules/occurrences
func (h *ScheduleHandler) ListOccurrences(c *gin.Context) {
	var req dto.OccurrenceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	occurrences, err := h.scheduleSvc.ListOccurrences(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": occurrences})
}

// MarkAttendance 出勤标记
// PATCH /api/v1/schedules/occurrences/:id/attendance
func (h *ScheduleHandler) MarkAttendance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "课次ID不能为空")
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	occ, err := h.scheduleSvc.MarkAttendance(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, occ)
}

// DeleteOccurrence 删除未来课次
// DELETE /api/v1/schedules/occurrences/:id
func (h *ScheduleHandler) DeleteOccurrence(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "课次ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.DeleteOccurrence(c.Request.Context(), id, callerID); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Reassign 学生换教师
// POST /api/v1/schedules/reassign
func (h *ScheduleHandler) Reassign(c *gin.Context) {
	var req dto.ReassignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.ReassignStudent(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// GenerateWeek 单周补排
// POST /api/v1/schedules/generate-week
func (h *ScheduleHandler) GenerateWeek(c *gin.Context) {
	var req dto.GenerateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.GenerateWeek(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// Extend 所有启用模板向前续排一周
// POST /api/v1/schedules/extend
func (h *ScheduleHandler) Extend(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.ExtendOneWeek(c.Request.Context(), callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ExtensionDue 统计待续排模板数
// GET /api/v1/schedules/extension-due
func (h *ScheduleHandler) ExtensionDue(c *gin.Context) {
	result, err := h.scheduleSvc.CountDueForExtension(c.Request.Context())
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListHistory 排课历史
// GET /api/v1/schedules/history
func (h *ScheduleHandler) ListHistory(c *gin.Context) {
	var req dto.HistoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	entries, total, err := h.scheduleSvc.ListHistory(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, entries, total, req.GetPage(), req.GetPageSize())
}

// ListTimeSlots 时段目录
// GET /api/v1/schedules/time-slots
func (h *ScheduleHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.scheduleSvc.ListTimeSlots(c.Request.Context())
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// UpdateTimeSlot 时段启停（仅管理员）
// PATCH /api/v1/schedules/time-slots/:id
func (h *ScheduleHandler) UpdateTimeSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "时段ID不能为空")
		return
	}

	var req dto.UpdateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.scheduleSvc.UpdateTimeSlot(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, slot)
}

// handleScheduleError 排课模块错误翻译
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13101, "学生不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 13102, "教师不存在")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 13103, "课程模板不存在")
	case errors.Is(err, service.ErrOccurrenceNotFound):
		response.NotFound(c, 13104, "课次不存在")
	case errors.Is(err, service.ErrTemplateInactive):
		response.BadRequest(c, 13105, "课程模板已停用")
	case errors.Is(err, service.ErrInvalidTimeSlot):
		response.BadRequest(c, 13106, "时段不在时段目录中")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13107, "日期格式不合法")
	case errors.Is(err, service.ErrInvalidAttendanceStatus):
		response.BadRequest(c, 13108, "出勤状态不合法")
	case errors.Is(err, service.ErrStudentDoubleBooked):
		response.Conflict(c, 13109, "学生在该时段已有课次")
	case errors.Is(err, service.ErrTeacherDoubleBooked):
		response.Conflict(c, 13110, "教师在该时段已有课次")
	case errors.Is(err, service.ErrPastImmutable):
		response.BadRequest(c, 13111, "过去周的课次不可删除或改排")
	case errors.Is(err, service.ErrScopeForbidden):
		response.Forbidden(c, 13112, "无权操作其他教师的课次")
	case errors.Is(err, service.ErrTimeSlotNotFound):
		response.NotFound(c, 13114, "时段不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13113, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
