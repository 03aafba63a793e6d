package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/service"
	"linguabridge/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWeekGrid 导出周课表 Excel
// GET /api/v1/export/week?week_start=2024-01-01
func (h *ExportHandler) ExportWeekGrid(c *gin.Context) {
	weekStart := c.Query("week_start")
	if weekStart == "" {
		response.BadRequest(c, 14001, "week_start 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportWeekGrid(c.Request.Context(), weekStart)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, buf.Bytes(), filename, xlsxContentType)
}

// ExportTeacherCalendar 导出教师个人课表 ICS
// GET /api/v1/export/teachers/:id/calendar
func (h *ExportHandler) ExportTeacherCalendar(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "教师ID不能为空")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTeacherCalendar(c.Request.Context(), id, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, buf.Bytes(), filename, icsContentType)
}

// ExportStudentCalendar 导出学生个人课表 ICS
// GET /api/v1/export/students/:id/calendar
func (h *ExportHandler) ExportStudentCalendar(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "学生ID不能为空")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStudentCalendar(c.Request.Context(), id, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeDownload(c, buf.Bytes(), filename, icsContentType)
}

// writeDownload 设置下载响应头并写入文件内容
func writeDownload(c *gin.Context, data []byte, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoOccurrences):
		response.NotFound(c, 14101, "该范围内无课次可导出")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14102, "学生不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 14103, "教师不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 14104, "日期格式不合法")
	case errors.Is(err, service.ErrScopeForbidden):
		response.Forbidden(c, 14105, "无权导出其他教师名下的课表")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
