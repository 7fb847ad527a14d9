package controller

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, studentID, courseID uint) (*model.Enrollment, bool, error)
	GetProgress(ctx context.Context, studentID, courseID uint) (*service.EnrollmentProgressView, error)
}

type EnrollmentController struct {
	Service EnrollmentService
}

func NewEnrollmentController(svc EnrollmentService) *EnrollmentController {
	return &EnrollmentController{Service: svc}
}

// @Summary 报名课程
// @Description 重复报名返回已有记录
// @Tags 报名
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Router /api/courses/{courseId}/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, err := util.ParseID("courseId", ctx.Param("courseId"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, created, err := c.Service.Enroll(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if created {
		util.Created(ctx, enrollment)
		return
	}
	util.Success(ctx, enrollment)
}

// @Summary 课程学习进度
// @Tags 报名
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.EnrollmentProgressView}
// @Failure 403 {object} util.Response
// @Router /api/courses/{courseId}/progress [get]
func (c *EnrollmentController) GetProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, err := util.ParseID("courseId", ctx.Param("courseId"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Service.GetProgress(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}
