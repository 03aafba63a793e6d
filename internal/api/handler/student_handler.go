package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/service"
	"linguabridge/backend/pkg/response"
)

// StudentHandler 学生名册 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// Create 创建学生
// POST /api/v1/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// Get 获取学生详情
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "学生ID不能为空")
		return
	}

	student, err := h.studentSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// List 学生列表
// GET /api/v1/students?active_only=true
func (h *StudentHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	students, err := h.studentSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": students})
}

// Update 更新学生
// PUT /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "学生ID不能为空")
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// Deactivate 停用学生（删除未来课次、停用模板与配对）
// POST /api/v1/students/:id/deactivate
func (h *StudentHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "学生ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Deactivate(c.Request.Context(), id, callerID); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

// HardDelete 彻底删除学生（级联删除课次/模板/报告/配对）
// DELETE /api/v1/students/:id
func (h *StudentHandler) HardDelete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "学生ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.HardDelete(c.Request.Context(), id, callerID); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleStudentError 学生模块错误翻译
func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11101, "学生不存在")
	default:
		response.InternalError(c)
	}
}
