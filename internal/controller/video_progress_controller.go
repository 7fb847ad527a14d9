package controller

import (
	"context"
	"errors"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoProgressService interface {
	SaveCheckpoint(ctx context.Context, studentID, courseID, moduleID, lessonID uint, cp service.Checkpoint) (*service.CheckpointResult, error)
	GetProgress(ctx context.Context, studentID, courseID, moduleID, lessonID uint) (*service.VideoProgressView, error)
}

type VideoProgressController struct {
	Service VideoProgressService
}

func NewVideoProgressController(svc VideoProgressService) *VideoProgressController {
	return &VideoProgressController{Service: svc}
}

// @Summary 上报视频观看进度
// @Description 播放、暂停、拖动、结束及定时上报；已观看时长只增不减
// @Tags 视频进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Param body body service.CheckpointReq true "进度"
// @Success 200 {object} util.Response{data=service.CheckpointResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/video-progress [put]
func (c *VideoProgressController) SaveCheckpoint(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var req service.CheckpointReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ValidationMessage(err))
		return
	}
	cp, err := req.Checkpoint()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SaveCheckpoint(ctx.Request.Context(), userID, courseID, moduleID, lessonID, cp)
	if errors.Is(err, util.ErrNotEnrolled) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取视频观看进度
// @Description 返回已保存的进度、观看百分比与续播位置
// @Tags 视频进度
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=service.VideoProgressView}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/video-progress [get]
func (c *VideoProgressController) GetProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Service.GetProgress(ctx.Request.Context(), userID, courseID, moduleID, lessonID)
	if errors.Is(err, util.ErrNotEnrolled) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}
