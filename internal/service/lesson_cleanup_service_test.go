package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonCleanupService_RemoveLesson(t *testing.T) {
	h := newHarness(t)
	h.enroll(h.student)
	_, err := h.checkpoint(h.videoA, 100, 100, 100)
	require.NoError(t, err)
	_, err = h.checkpoint(h.videoB, 30, 30, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, h.progress().OverallProgress)

	// 文件删除失败不影响结果
	h.storage.err = assert.AnError
	removal, err := h.cleanup.RemoveLesson(h.ctx, h.instructor, h.course.ID, h.module.ID, h.videoA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removal.RemovedCompletions)
	assert.Equal(t, int64(1), removal.RemovedProgress)
	assert.Equal(t, 1, removal.Recomputed)
	assert.Equal(t, []string{"videos/a.mp4"}, h.storage.deleted)

	p := h.progress()
	assert.Equal(t, int64(3), p.TotalLessons)
	assert.Equal(t, 0, p.OverallProgress)
	assert.Empty(t, p.CompletedLessons)

	// 其他课时的进度保留
	_, err = h.video.GetProgress(h.ctx, h.student, h.course.ID, h.module.ID, h.videoB.ID)
	require.NoError(t, err)
}

func TestLessonCleanupService_CompletesRemainingEnrollments(t *testing.T) {
	h := newHarness(t)
	h.enroll(h.student)
	for _, l := range []*model.Lesson{h.videoA, h.videoB} {
		_, err := h.checkpoint(l, 100, 100, 100)
		require.NoError(t, err)
	}
	_, err := h.submit(h.start().AttemptID, answer(1, 0), answer(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 75, h.progress().OverallProgress)

	// 删掉唯一未完成的课时后，报名直接变为完成
	_, err = h.cleanup.RemoveLesson(h.ctx, h.instructor, h.course.ID, h.module.ID, h.videoC.ID)
	require.NoError(t, err)
	p := h.progress()
	assert.Equal(t, 100, p.OverallProgress)
	assert.Equal(t, model.EnrollmentCompleted, p.Status)
}

func TestLessonCleanupService_Permissions(t *testing.T) {
	h := newHarness(t)

	_, err := h.cleanup.RemoveLesson(h.ctx, h.student, h.course.ID, h.module.ID, h.videoA.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = h.cleanup.RemoveLesson(h.ctx, h.otherInstructor, h.course.ID, h.module.ID, h.videoA.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = h.cleanup.RemoveLesson(h.ctx, h.instructor, h.course.ID, h.module.ID, 9999)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	admin := &model.User{Name: "root", Email: "root@example.com", Role: model.Admin}
	h.create(admin)
	_, err = h.cleanup.RemoveLesson(h.ctx, admin.ID, h.course.ID, h.module.ID, h.quizLesson.ID)
	require.NoError(t, err)
	assert.Empty(t, h.storage.deleted)
}

func TestLocalStorageProvider_Delete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "videos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "videos", "a.mp4"), []byte("x"), 0o644))

	p := &LocalStorageProvider{Root: root}
	require.NoError(t, p.Delete(context.Background(), "videos/a.mp4"))
	_, err := os.Stat(filepath.Join(root, "videos", "a.mp4"))
	assert.True(t, os.IsNotExist(err))

	// 文件已不存在视为成功
	assert.NoError(t, p.Delete(context.Background(), "videos/a.mp4"))
	assert.Error(t, p.Delete(context.Background(), "../etc/passwd"))
}
