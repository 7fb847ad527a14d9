package service

import (
	"context"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeDrafts struct {
	mu     sync.Mutex
	drafts map[string]model.AttemptDraft
	ttls   map[string]time.Duration
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: map[string]model.AttemptDraft{}, ttls: map[string]time.Duration{}}
}

func (f *fakeDrafts) Save(ctx context.Context, draft *model.AttemptDraft, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[draft.AttemptID] = *draft
	f.ttls[draft.AttemptID] = ttl
	return nil
}

func (f *fakeDrafts) Get(ctx context.Context, attemptID string) (*model.AttemptDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[attemptID]
	if !ok {
		return nil, util.ErrDraftNotFound
	}
	return &d, nil
}

func (f *fakeDrafts) Delete(ctx context.Context, attemptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, attemptID)
	return nil
}

type publishedEvent struct {
	key     string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: routingKey, payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.key == key {
			n++
		}
	}
	return n
}

type fakeStorage struct {
	deleted []string
	err     error
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.err
}

// harness 一门 4 课时的课程：视频 A、视频 B、测验 Q、视频 C
type harness struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	clock time.Time

	student, otherStudent, instructor, otherInstructor uint
	course                                             *model.Course
	module                                             *model.CourseModule
	videoA, videoB, quizLesson, videoC                 *model.Lesson
	quiz                                               *model.Quiz

	enrollmentRepo *repository.EnrollmentRepository
	progressRepo   *repository.VideoProgressRepository
	attemptRepo    *repository.QuizAttemptRepository

	settings   *ProgressSettings
	drafts     *fakeDrafts
	publisher  *recordingPublisher
	storage    *fakeStorage
	aggregator *ProgressAggregator
	video      *VideoProgressService
	quizzes    *QuizAttemptService
	enrollment *EnrollmentService
	cleanup    *LessonCleanupService
	reconcile  *ReconcileService
}

func newHarness(t *testing.T) *harness {
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

	h := &harness{t: t, ctx: context.Background(), db: db, clock: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	h.seed()

	users := repository.NewUserRepository(db)
	catalog := repository.NewCatalogRepository(db)
	h.enrollmentRepo = repository.NewEnrollmentRepository(db)
	h.progressRepo = repository.NewVideoProgressRepository(db)
	h.attemptRepo = repository.NewQuizAttemptRepository(db)

	h.settings = NewProgressSettings(config.ProgressConfig{
		DurationTolerance:          1.1,
		ResumeRestartWindowSeconds: 5,
		QuizLateGraceSeconds:       30,
		DraftTTLGraceMinutes:       10,
		QuizCompletesLesson:        true,
	})
	h.drafts = newFakeDrafts()
	h.publisher = &recordingPublisher{}
	h.storage = &fakeStorage{}
	events := NewEventService(h.publisher)
	access := NewAccessService(users, catalog, h.enrollmentRepo)

	now := func() time.Time { return h.clock }
	h.aggregator = NewProgressAggregator(catalog, h.enrollmentRepo, events)
	h.aggregator.now = now
	h.video = NewVideoProgressService(access, catalog, h.progressRepo, h.enrollmentRepo, h.aggregator, h.settings)
	h.video.now = now
	h.quizzes = NewQuizAttemptService(access, catalog, h.attemptRepo, h.drafts, h.aggregator, events, h.settings)
	h.quizzes.now = now
	h.enrollment = NewEnrollmentService(access, h.enrollmentRepo, h.aggregator)
	h.cleanup = NewLessonCleanupService(access, catalog, h.enrollmentRepo, h.progressRepo, &StorageService{Provider: h.storage}, h.aggregator)
	h.reconcile = NewReconcileService(h.enrollmentRepo, h.aggregator, 2)
	return h
}

func (h *harness) create(v interface{}) {
	h.t.Helper()
	require.NoError(h.t, h.db.Create(v).Error)
}

func (h *harness) seed() {
	users := []*model.User{
		{Name: "stu", Email: "stu@example.com", Role: model.Student},
		{Name: "stu2", Email: "stu2@example.com", Role: model.Student},
		{Name: "instructor", Email: "t@example.com", Role: model.Instructor},
		{Name: "instructor2", Email: "t2@example.com", Role: model.Instructor},
	}
	for _, u := range users {
		h.create(u)
	}
	h.student, h.otherStudent, h.instructor, h.otherInstructor = users[0].ID, users[1].ID, users[2].ID, users[3].ID

	h.course = &model.Course{Title: "Go", InstructorID: h.instructor}
	h.create(h.course)
	h.module = &model.CourseModule{CourseID: h.course.ID, Title: "m1", Order: 1}
	h.create(h.module)

	h.videoA = &model.Lesson{ModuleID: h.module.ID, Title: "A", Type: model.LessonVideo, Order: 1}
	h.videoB = &model.Lesson{ModuleID: h.module.ID, Title: "B", Type: model.LessonVideo, Order: 2}
	h.quizLesson = &model.Lesson{ModuleID: h.module.ID, Title: "Q", Type: model.LessonQuiz, Order: 3}
	h.videoC = &model.Lesson{ModuleID: h.module.ID, Title: "C", Type: model.LessonVideo, Order: 4}
	for _, l := range []*model.Lesson{h.videoA, h.videoB, h.quizLesson, h.videoC} {
		h.create(l)
	}
	h.create(&model.Video{LessonID: h.videoA.ID, FileKey: "videos/a.mp4", Duration: 100})
	h.create(&model.Video{LessonID: h.videoB.ID, FileKey: "videos/b.mp4", Duration: 100})
	h.create(&model.Video{LessonID: h.videoC.ID, FileKey: "videos/c.mp4", Duration: 0})

	h.quiz = &model.Quiz{LessonID: h.quizLesson.ID, Title: "check", TimeLimit: 10, PassingScore: 10}
	h.create(h.quiz)
	h.create(&model.Question{QuizID: h.quiz.ID, QuestionNo: 1, Text: "q1", Options: []string{"a", "b"}, CorrectOption: 0, Points: 5, Explanation: "e1"})
	h.create(&model.Question{QuizID: h.quiz.ID, QuestionNo: 2, Text: "q2", Options: []string{"a", "b"}, CorrectOption: 1, Points: 10, Explanation: "e2"})
}

func (h *harness) enroll(studentID uint) *model.Enrollment {
	h.t.Helper()
	e, _, err := h.enrollment.Enroll(h.ctx, studentID, h.course.ID)
	require.NoError(h.t, err)
	return e
}

func (h *harness) checkpoint(lesson *model.Lesson, watched, pos, total float64) (*CheckpointResult, error) {
	return h.video.SaveCheckpoint(h.ctx, h.student, h.course.ID, h.module.ID, lesson.ID,
		Checkpoint{WatchedDuration: watched, LastWatchedPosition: pos, TotalDuration: total})
}

func (h *harness) submit(attemptID string, answers ...SubmittedAnswer) (*AttemptSummary, error) {
	return h.quizzes.Submit(h.ctx, h.student, h.course.ID, h.module.ID, h.quizLesson.ID, attemptID,
		SubmitAttemptReq{Responses: answers})
}

func (h *harness) start() *StartedAttempt {
	h.t.Helper()
	a, err := h.quizzes.Start(h.ctx, h.student, h.course.ID, h.module.ID, h.quizLesson.ID)
	require.NoError(h.t, err)
	return a
}

func (h *harness) progress() *EnrollmentProgressView {
	h.t.Helper()
	p, err := h.enrollment.GetProgress(h.ctx, h.student, h.course.ID)
	require.NoError(h.t, err)
	return p
}

func answer(q, opt int) SubmittedAnswer {
	return SubmittedAnswer{QuestionID: q, SelectedOption: &opt}
}
