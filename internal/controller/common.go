package controller

import (
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// lessonPath 解析 /courses/:courseId/modules/:moduleId/lessons/:lessonId
func lessonPath(ctx *gin.Context) (courseID, moduleID, lessonID uint, err error) {
	if courseID, err = util.ParseID("courseId", ctx.Param("courseId")); err != nil {
		return
	}
	if moduleID, err = util.ParseID("moduleId", ctx.Param("moduleId")); err != nil {
		return
	}
	lessonID, err = util.ParseID("lessonId", ctx.Param("lessonId"))
	return
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil || user.UserID == 0 {
		util.Unauthorized(ctx)
		return 0, false
	}
	return user.UserID, true
}
