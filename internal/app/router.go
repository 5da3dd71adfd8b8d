package app

import (
	"easytest_backend/internal/config"
	"easytest_backend/internal/middleware"
	"easytest_backend/internal/model"
	"easytest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// 公共路由 Public routes
	router.GET("/health", c.health.Check)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.POST("/auth/register", c.auth.Register)
		api.POST("/auth/login", c.auth.Login)
	}

	// 需要认证的路由 Authenticated routes
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(cfg))
	{
		auth.GET("/auth/me", c.auth.Me)

		auth.GET("/tests", c.test.List)
		auth.GET("/tests/:id", c.test.Get)

		// 答题会话 Attempt lifecycle
		auth.POST("/tests/:id/attempt", c.attempt.Start)
		auth.GET("/tests/:id/attempt/current", c.attempt.Current)
		auth.POST("/tests/:id/attempt/submit", c.attempt.Submit)
		auth.GET("/tests/:id/result", c.attempt.Result)
		auth.GET("/results", c.attempt.ListResults)
	}

	// 教师与管理员路由 Staff routes
	staff := auth.Group("/staff")
	staff.Use(middleware.RoleMiddleware(model.Staff))
	{
		staff.GET("/tests", c.test.ListOwn)
		staff.POST("/tests", c.test.Create)
		staff.PUT("/tests/:id", c.test.Update)
		staff.DELETE("/tests/:id", c.test.Delete)
		staff.POST("/tests/import", c.test.Import)

		staff.GET("/categories", c.test.ListCategories)
		staff.POST("/categories", c.test.CreateCategory)
		staff.PUT("/categories/:id", c.test.UpdateCategory)
		staff.DELETE("/categories/:id", c.test.DeleteCategory)

		staff.GET("/questions", c.question.List)
		staff.POST("/questions", c.question.Create)
		staff.GET("/questions/:id", c.question.Get)
		staff.DELETE("/questions/:id", c.question.Delete)
		staff.POST("/questions/import", c.question.Import)

		staff.GET("/groups", c.group.List)
		staff.POST("/groups", c.group.Create)
		staff.PUT("/groups/:id", c.group.Update)
		staff.DELETE("/groups/:id", c.group.Delete)
		staff.GET("/students", c.group.ListStudents)
		staff.PUT("/students/:id/group", c.group.AssignStudent)
	}
}
