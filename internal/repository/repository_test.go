package repository

import (
	"context"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Course{}, &model.CourseModule{}, &model.Lesson{},
		&model.Video{}, &model.Quiz{}, &model.Question{},
		&model.Enrollment{}, &model.CompletedLesson{}, &model.VideoProgress{}, &model.QuizAttempt{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// seedCourse 两个模块，共 lessons 个课时，第一个课时是视频
func seedCourse(t *testing.T, db *gorm.DB, lessons int) (*model.Course, []model.Lesson) {
	t.Helper()
	course := &model.Course{Title: "Go 101", InstructorID: 7}
	require.NoError(t, db.Create(course).Error)
	m1 := &model.CourseModule{CourseID: course.ID, Title: "basics", Order: 1}
	m2 := &model.CourseModule{CourseID: course.ID, Title: "advanced", Order: 2}
	require.NoError(t, db.Create(m1).Error)
	require.NoError(t, db.Create(m2).Error)

	var created []model.Lesson
	for i := 0; i < lessons; i++ {
		moduleID := m1.ID
		if i%2 == 1 {
			moduleID = m2.ID
		}
		lessonType := model.LessonVideo
		if i > 0 {
			lessonType = model.LessonQuiz
		}
		l := model.Lesson{ModuleID: moduleID, Title: fmt.Sprintf("lesson %d", i+1), Type: lessonType, Order: i}
		require.NoError(t, db.Create(&l).Error)
		created = append(created, l)
	}
	return course, created
}

func TestCatalogRepository_CountLessonsIsFresh(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	course, lessons := seedCourse(t, db, 4)
	repo := NewCatalogRepository(db)

	n, err := repo.CountLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.NoError(t, db.Create(&model.Video{LessonID: lessons[0].ID, FileKey: "videos/a.mp4", Duration: 100}).Error)
	key, err := repo.DeleteLesson(ctx, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "videos/a.mp4", key)

	n, err = repo.CountLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.FindVideoByLesson(ctx, lessons[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCatalogRepository_QuizQuestionsOrderedByNumber(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, lessons := seedCourse(t, db, 2)

	quiz := &model.Quiz{LessonID: lessons[1].ID, PassingScore: 10, TimeLimit: 15}
	require.NoError(t, db.Create(quiz).Error)
	require.NoError(t, db.Create(&model.Question{QuizID: quiz.ID, QuestionNo: 2, Options: []string{"a", "b"}, CorrectOption: 1, Points: 10}).Error)
	require.NoError(t, db.Create(&model.Question{QuizID: quiz.ID, QuestionNo: 1, Options: []string{"x", "y"}, CorrectOption: 0, Points: 5}).Error)

	got, err := NewCatalogRepository(db).FindQuizByLesson(ctx, lessons[1].ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, 1, got.Questions[0].QuestionNo)
	assert.Equal(t, []string{"x", "y"}, []string(got.Questions[0].Options))
	assert.Equal(t, 15, got.TotalPoints())
}

// 0 分题（如练习题）入库后仍为 0，不能被列默认值改写
func TestCatalogRepository_ZeroPointQuestionKeepsZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, lessons := seedCourse(t, db, 1)

	quiz := &model.Quiz{LessonID: lessons[0].ID, PassingScore: 5, TimeLimit: 15}
	require.NoError(t, db.Create(quiz).Error)
	require.NoError(t, db.Create(&model.Question{QuizID: quiz.ID, QuestionNo: 1, Options: []string{"a", "b"}, CorrectOption: 0, Points: 5}).Error)
	require.NoError(t, db.Create(&model.Question{QuizID: quiz.ID, QuestionNo: 2, Options: []string{"a", "b"}, CorrectOption: 1, Points: 0}).Error)

	got, err := NewCatalogRepository(db).FindQuizByLesson(ctx, lessons[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, 0, got.Questions[1].Points)
	assert.Equal(t, 5, got.TotalPoints())
}

func TestEnrollmentRepository_FindOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)

	first, created, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.EnrollmentActive, first.Status)

	second, created, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollmentRepository_UpsertCompletedLessonNeverDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)
	enrollment, _, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	now := time.Now()
	newly, err := repo.UpsertCompletedLesson(ctx, &model.CompletedLesson{
		EnrollmentID: enrollment.ID, ModuleID: 3, LessonID: 4, LessonType: model.LessonVideo,
		VideoProgress: &model.VideoSnapshot{WatchedDuration: 100, TotalDuration: 100, LastWatchedPosition: 100},
		CompletedAt:   &now,
	})
	require.NoError(t, err)
	assert.True(t, newly)

	newly, err = repo.UpsertCompletedLesson(ctx, &model.CompletedLesson{
		EnrollmentID: enrollment.ID, ModuleID: 3, LessonID: 4, LessonType: model.LessonVideo, CompletedAt: &now,
	})
	require.NoError(t, err)
	assert.False(t, newly)

	lessons, err := repo.ListCompletedLessons(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	require.NotNil(t, lessons[0].VideoProgress)
	assert.InDelta(t, 100, lessons[0].VideoProgress.WatchedDuration, 1e-9)

	count, err := repo.CountCompletedLessons(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnrollmentRepository_UpsertFillsPendingEntry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)
	enrollment, _, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	// 尚未完成的条目不计入完成数
	require.NoError(t, db.Create(&model.CompletedLesson{EnrollmentID: enrollment.ID, LessonID: 9, LessonType: model.LessonQuiz}).Error)
	count, err := repo.CountCompletedLessons(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	now := time.Now()
	newly, err := repo.UpsertCompletedLesson(ctx, &model.CompletedLesson{
		EnrollmentID: enrollment.ID, LessonID: 9, LessonType: model.LessonQuiz, CompletedAt: &now,
	})
	require.NoError(t, err)
	assert.True(t, newly)

	count, err = repo.CountCompletedLessons(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// fixedProgress 忽略计数，返回给定进度；completed 状态保持不变
func fixedProgress(progress int, status model.EnrollmentStatus) ProgressFunc {
	return func(_ int64, current model.EnrollmentStatus) (int, model.EnrollmentStatus) {
		if current == model.EnrollmentCompleted {
			return progress, current
		}
		return progress, status
	}
}

func TestEnrollmentRepository_StatusFlipsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)
	enrollment, _, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	out, err := repo.SaveProgress(ctx, enrollment.ID, time.Now(), fixedProgress(100, model.EnrollmentCompleted))
	require.NoError(t, err)
	assert.True(t, out.Flipped)

	out, err = repo.SaveProgress(ctx, enrollment.ID, time.Now(), fixedProgress(100, model.EnrollmentCompleted))
	require.NoError(t, err)
	assert.False(t, out.Flipped)

	// 进度下降不会让状态回退
	out, err = repo.SaveProgress(ctx, enrollment.ID, time.Now(), fixedProgress(67, model.EnrollmentActive))
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, out.Status)

	got, err := repo.FindByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
	assert.Equal(t, 67, got.OverallProgress)
	assert.NotNil(t, got.CompletedAt)
}

// 调用方在写入前读到的完成数可能已过期，进度必须按事务内的最新计数计算
func TestEnrollmentRepository_SaveProgressRecountsInTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)
	enrollment, _, err := repo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	now := time.Now()
	for lesson := uint(1); lesson <= 3; lesson++ {
		_, err := repo.UpsertCompletedLesson(ctx, &model.CompletedLesson{
			EnrollmentID: enrollment.ID, LessonID: lesson, LessonType: model.LessonVideo, CompletedAt: &now,
		})
		require.NoError(t, err)
	}
	stale, err := repo.CountCompletedLessons(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), stale)

	// 另一个请求在此期间完成了第 4 课
	_, err = repo.UpsertCompletedLesson(ctx, &model.CompletedLesson{
		EnrollmentID: enrollment.ID, LessonID: 4, LessonType: model.LessonVideo, CompletedAt: &now,
	})
	require.NoError(t, err)

	byCount := func(completed int64, status model.EnrollmentStatus) (int, model.EnrollmentStatus) {
		progress := int(completed * 25)
		if progress == 100 || status == model.EnrollmentCompleted {
			return progress, model.EnrollmentCompleted
		}
		return progress, model.EnrollmentActive
	}
	out, err := repo.SaveProgress(ctx, enrollment.ID, now, byCount)
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.CompletedCount)
	assert.Equal(t, 100, out.Progress)
	assert.True(t, out.Flipped)

	// 之后的重算同样按最新计数写入，不会退回 75%
	out, err = repo.SaveProgress(ctx, enrollment.ID, now, byCount)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Progress)

	got, err := repo.FindByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.OverallProgress)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
}

func TestEnrollmentRepository_ForEachActiveBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepository(db)
	for student := uint(1); student <= 5; student++ {
		_, _, err := repo.FindOrCreate(ctx, student, 1)
		require.NoError(t, err)
	}
	done, _, err := repo.FindOrCreate(ctx, 6, 1)
	require.NoError(t, err)
	_, err = repo.SaveProgress(ctx, done.ID, time.Now(), fixedProgress(100, model.EnrollmentCompleted))
	require.NoError(t, err)

	seen := 0
	batches := 0
	err = repo.ForEachActiveBatch(ctx, 2, func(batch []model.Enrollment) error {
		batches++
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

func TestVideoProgressRepository_ApplyCreatesThenMerges(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewVideoProgressRepository(db)
	key := VideoProgressKey{CourseID: 1, ModuleID: 2, LessonID: 3, StudentID: 4}

	_, err := repo.Find(ctx, key)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	created, err := repo.Apply(ctx, key, func(current *model.VideoProgress) *model.VideoProgress {
		assert.Nil(t, current)
		return &model.VideoProgress{WatchedDuration: 40, TotalDuration: 100, LastWatchedPosition: 40}
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := repo.Apply(ctx, key, func(current *model.VideoProgress) *model.VideoProgress {
		require.NotNil(t, current)
		next := *current
		next.LastWatchedPosition = 30
		return &next
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	stored, err := repo.Find(ctx, key)
	require.NoError(t, err)
	assert.InDelta(t, 40, stored.WatchedDuration, 1e-9)
	assert.InDelta(t, 30, stored.LastWatchedPosition, 1e-9)

	n, err := repo.DeleteByLesson(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQuizAttemptRepository_FinalizeOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewQuizAttemptRepository(db)

	attempt := &model.QuizAttempt{StudentID: 1, QuizID: 2, Status: model.AttemptInProgress, StartedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, attempt))
	require.NotEmpty(t, attempt.ID)

	now := time.Now()
	attempt.Status = model.AttemptCompleted
	attempt.Score = 15
	attempt.PointsEarned = 15
	attempt.TotalPoints = 15
	attempt.Passed = true
	attempt.SubmittedAt = &now
	attempt.Responses = []model.QuizResponse{{QuestionID: 1, SelectedOption: 0, CorrectOption: 0, IsCorrect: true, Points: 5}}
	ok, err := repo.Finalize(ctx, attempt)
	require.NoError(t, err)
	assert.True(t, ok)

	regrade := *attempt
	regrade.Score = 0
	regrade.Passed = false
	ok, err = repo.Finalize(ctx, &regrade)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Score)
	assert.True(t, stored.Passed)
	assert.True(t, stored.IsFinal())
	require.Len(t, stored.Responses, 1)
	assert.True(t, stored.Responses[0].IsCorrect)
}

func TestQuizAttemptRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewQuizAttemptRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.QuizAttempt{
			StudentID: 1, QuizID: 2, Status: model.AttemptInProgress, StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &model.QuizAttempt{StudentID: 9, QuizID: 2, Status: model.AttemptInProgress, StartedAt: time.Now()}))

	attempts, err := repo.ListByStudentAndQuiz(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.True(t, attempts[0].StartedAt.After(attempts[2].StartedAt))
}

func TestAttemptDraftRepository_WithoutRedis(t *testing.T) {
	repo := NewAttemptDraftRepository(nil)
	ctx := context.Background()

	err := repo.Save(ctx, &model.AttemptDraft{AttemptID: "a"}, time.Minute)
	assert.ErrorIs(t, err, util.ErrDraftUnavailable)
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, util.ErrDraftUnavailable)
	assert.NoError(t, repo.Delete(ctx, "a"))
	assert.Equal(t, "quiz:attempt:a:draft", draftKey("a"))
}
