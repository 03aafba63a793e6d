package handler

import (
	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/service"
	"linguabridge/backend/pkg/jwt"
	"linguabridge/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 从 Gin 上下文组装请求主体（user_id + role + teacher_id）。
func MustGetCaller(c *gin.Context) (*service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}
	role, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	teacherID, _ := c.Get("teacher_id")
	tid, _ := teacherID.(string)
	return &service.Caller{
		UserID:    userID,
		Role:      role.(string),
		TeacherID: tid,
	}, true
}

// MustGetClaims 从 Gin 上下文中提取完整 JWT 声明（登出时需要 jti 与过期时间）。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}
