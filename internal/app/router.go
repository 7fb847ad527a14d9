package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(&cfg.JWT), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearnerRoutes(authGroup, c, a.checkpointLimit(cfg))

		// 教师相关接口
		a.registerInstructorRoutes(authGroup, c)
	}
}

// registerLearnerRoutes 角色由服务层按用户表校验，这里只要求登录
func (a *App) registerLearnerRoutes(r *gin.RouterGroup, c *controllers, checkpointLimit gin.HandlerFunc) {
	courses := r.Group("/courses/:courseId")
	{
		courses.POST("/enrollments", c.enrollment.Enroll)
		courses.GET("/progress", c.enrollment.GetProgress)

		lesson := courses.Group("/modules/:moduleId/lessons/:lessonId")
		lesson.PUT("/video-progress", checkpointLimit, c.videoProgress.SaveCheckpoint)
		lesson.GET("/video-progress", c.videoProgress.GetProgress)
		lesson.POST("/quiz/attempts", c.quizAttempt.StartAttempt)
		lesson.GET("/quiz/attempts", c.quizAttempt.ListAttempts)
		lesson.POST("/quiz/attempts/:attemptId/submit", c.quizAttempt.SubmitAttempt)
	}

	attempts := r.Group("/quiz-attempts/:attemptId")
	{
		attempts.GET("", c.quizAttempt.GetAttempt)
		attempts.PUT("/draft", c.quizAttempt.SaveDraft)
		attempts.GET("/draft", c.quizAttempt.GetDraft)
	}
}

func (a *App) registerInstructorRoutes(r *gin.RouterGroup, c *controllers) {
	instructor := r.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.DELETE("/courses/:courseId/modules/:moduleId/lessons/:lessonId", c.lesson.DeleteLesson)
	}
}
