package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/service"
	"linguabridge/backend/pkg/response"
)

// TeacherHandler 教师名册 HTTP 处理器
type TeacherHandler struct {
	teacherSvc service.TeacherService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(teacherSvc service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherSvc: teacherSvc}
}

// Create 创建教师
// POST /api/v1/teachers
func (h *TeacherHandler) Create(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	teacher, err := h.teacherSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.Created(c, teacher)
}

// Get 获取教师详情
// GET /api/v1/teachers/:id
func (h *TeacherHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "教师ID不能为空")
		return
	}

	teacher, err := h.teacherSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, teacher)
}

// List 教师列表
// GET /api/v1/teachers?active_only=true
func (h *TeacherHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	teachers, err := h.teacherSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, gin.H{"list": teachers})
}

// Update 更新教师
// PUT /api/v1/teachers/:id
func (h *TeacherHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "教师ID不能为空")
		return
	}

	var req dto.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	teacher, err := h.teacherSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, teacher)
}

// Deactivate 停用教师（删除未来课次、停用模板与配对）
// POST /api/v1/teachers/:id/deactivate
func (h *TeacherHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "教师ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.teacherSvc.Deactivate(c.Request.Context(), id, callerID); err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, nil)
}

// HardDelete 彻底删除教师（级联删除课次/模板/报告/配对）
// DELETE /api/v1/teachers/:id
func (h *TeacherHandler) HardDelete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "教师ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.teacherSvc.HardDelete(c.Request.Context(), id, callerID); err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTeacherError 教师模块错误翻译
func (h *TeacherHandler) handleTeacherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 12101, "教师不存在")
	default:
		response.InternalError(c)
	}
}
