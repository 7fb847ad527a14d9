package controller

import (
	"context"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonCleanupService interface {
	RemoveLesson(ctx context.Context, userID, courseID, moduleID, lessonID uint) (*service.LessonRemoval, error)
}

type LessonController struct {
	Service LessonCleanupService
}

func NewLessonController(svc LessonCleanupService) *LessonController {
	return &LessonController{Service: svc}
}

// @Summary 删除课时
// @Description 同时清理学习记录与视频文件，并重算该课程所有报名的进度
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=service.LessonRemoval}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/instructor/courses/{courseId}/modules/{moduleId}/lessons/{lessonId} [delete]
func (c *LessonController) DeleteLesson(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	removal, err := c.Service.RemoveLesson(ctx.Request.Context(), userID, courseID, moduleID, lessonID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, removal)
}
