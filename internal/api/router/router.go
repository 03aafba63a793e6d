package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linguabridge/backend/config"
	"linguabridge/backend/internal/api/handler"
	"linguabridge/backend/internal/api/middleware"
	"linguabridge/backend/pkg/jwt"
	"linguabridge/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, cache *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, cache, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 学生名册
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.List)
				students.GET("/:id", h.Student.Get)
				students.POST("", middleware.RoleAuth("admin"), h.Student.Create)
				students.PUT("/:id", middleware.RoleAuth("admin"), h.Student.Update)
				students.POST("/:id/deactivate", middleware.RoleAuth("admin"), h.Student.Deactivate)
				students.DELETE("/:id", middleware.RoleAuth("admin"), h.Student.HardDelete)
			}

			// 教师名册
			teachers := authorized.Group("/teachers")
			{
				teachers.GET("", h.Teacher.List)
				teachers.GET("/:id", h.Teacher.Get)
				teachers.POST("", middleware.RoleAuth("admin"), h.Teacher.Create)
				teachers.PUT("/:id", middleware.RoleAuth("admin"), h.Teacher.Update)
				teachers.POST("/:id/deactivate", middleware.RoleAuth("admin"), h.Teacher.Deactivate)
				teachers.DELETE("/:id", middleware.RoleAuth("admin"), h.Teacher.HardDelete)
			}

			// 排课模块
			schedules := authorized.Group("/schedules")
			{
				schedules.POST("/templates", middleware.RoleAuth("admin"), h.Schedule.CreateTemplate)
				schedules.GET("/templates", h.Schedule.ListTemplates) // 教师范围由 Service 层校验
				schedules.POST("/templates/:id/deactivate", middleware.RoleAuth("admin"), h.Schedule.DeactivateTemplate)
				schedules.GET("/occurrences", h.Schedule.ListOccurrences)
				schedules.PATCH("/occurrences/:id/attendance", h.Schedule.MarkAttendance) // 教师范围由 Service 层校验
				schedules.DELETE("/occurrences/:id", middleware.RoleAuth("admin"), h.Schedule.DeleteOccurrence)
				schedules.POST("/reassign", middleware.RoleAuth("admin"), h.Schedule.Reassign)
				schedules.POST("/generate-week", middleware.RoleAuth("admin"), h.Schedule.GenerateWeek)
				schedules.POST("/extend", middleware.RoleAuth("admin"), h.Schedule.Extend)
				schedules.GET("/extension-due", middleware.RoleAuth("admin"), h.Schedule.ExtensionDue)
				schedules.GET("/history", middleware.RoleAuth("admin"), h.Schedule.ListHistory)
				schedules.GET("/time-slots", h.Schedule.ListTimeSlots)
				schedules.PATCH("/time-slots/:id", middleware.RoleAuth("admin"), h.Schedule.UpdateTimeSlot)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/week", middleware.RoleAuth("admin"), h.Export.ExportWeekGrid)
				export.GET("/teachers/:id/calendar", h.Export.ExportTeacherCalendar) // 教师范围由 Service 层校验
				export.GET("/students/:id/calendar", h.Export.ExportStudentCalendar)
			}
		}
	}

	return r
}
