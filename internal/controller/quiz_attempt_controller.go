package controller

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type QuizAttemptService interface {
	Start(ctx context.Context, studentID, courseID, moduleID, lessonID uint) (*service.StartedAttempt, error)
	Submit(ctx context.Context, studentID, courseID, moduleID, lessonID uint, attemptID string, req service.SubmitAttemptReq) (*service.AttemptSummary, error)
	Get(ctx context.Context, studentID uint, attemptID string) (*model.QuizAttempt, error)
	ListMine(ctx context.Context, studentID, courseID, moduleID, lessonID uint) ([]model.QuizAttempt, error)
	SaveDraft(ctx context.Context, studentID uint, attemptID string, req service.SaveDraftReq) (*model.AttemptDraft, error)
	GetDraft(ctx context.Context, studentID uint, attemptID string) (*model.AttemptDraft, error)
}

type QuizAttemptController struct {
	Service QuizAttemptService
}

func NewQuizAttemptController(svc QuizAttemptService) *QuizAttemptController {
	return &QuizAttemptController{Service: svc}
}

// @Summary 开始测验作答
// @Description 需已报名该课程；每次调用创建一个新的作答
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Success 201 {object} util.Response{data=service.StartedAttempt}
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/quiz/attempts [post]
func (c *QuizAttemptController) StartAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	started, err := c.Service.Start(ctx.Request.Context(), userID, courseID, moduleID, lessonID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, started)
}

// @Summary 我的测验作答记录
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/quiz/attempts [get]
func (c *QuizAttemptController) ListAttempts(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempts, err := c.Service.ListMine(ctx.Request.Context(), userID, courseID, moduleID, lessonID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// @Summary 提交测验作答
// @Description 重复提交返回 409 与已保存的结果，不会重新评分
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param lessonId path int true "课时ID"
// @Param attemptId path string true "作答ID"
// @Param body body service.SubmitAttemptReq true "作答"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response{data=service.AttemptSummary}
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/quiz/attempts/{attemptId}/submit [post]
func (c *QuizAttemptController) SubmitAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, moduleID, lessonID, err := lessonPath(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var req service.SubmitAttemptReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ValidationMessage(err))
		return
	}

	summary, err := c.Service.Submit(ctx.Request.Context(), userID, courseID, moduleID, lessonID, ctx.Param("attemptId"), req)
	if errors.Is(err, util.ErrAttemptAlreadySubmitted) {
		util.ErrorWithData(ctx, http.StatusConflict, err.Error(), summary)
		return
	}
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 获取测验作答详情
// @Description 包含每题对错与解析；只能查看自己的作答
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "作答ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response
// @Router /api/quiz-attempts/{attemptId} [get]
func (c *QuizAttemptController) GetAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	attempt, err := c.Service.Get(ctx.Request.Context(), userID, ctx.Param("attemptId"))
	if errors.Is(err, util.ErrAttemptNotFound) {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}

// @Summary 保存作答草稿
// @Description 当前题号、已选答案与剩余时间，刷新页面后可恢复
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "作答ID"
// @Param body body service.SaveDraftReq true "草稿"
// @Success 200 {object} util.Response{data=model.AttemptDraft}
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/quiz-attempts/{attemptId}/draft [put]
func (c *QuizAttemptController) SaveDraft(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.SaveDraftReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ValidationMessage(err))
		return
	}

	draft, err := c.Service.SaveDraft(ctx.Request.Context(), userID, ctx.Param("attemptId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, draft)
}

// @Summary 获取作答草稿
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "作答ID"
// @Success 200 {object} util.Response{data=model.AttemptDraft}
// @Failure 404 {object} util.Response
// @Router /api/quiz-attempts/{attemptId}/draft [get]
func (c *QuizAttemptController) GetDraft(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	draft, err := c.Service.GetDraft(ctx.Request.Context(), userID, ctx.Param("attemptId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, draft)
}
