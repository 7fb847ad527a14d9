package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/grading"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DraftStore 作答草稿的临时存储（Redis）
type DraftStore interface {
	Save(ctx context.Context, draft *model.AttemptDraft, ttl time.Duration) error
	Get(ctx context.Context, attemptID string) (*model.AttemptDraft, error)
	Delete(ctx context.Context, attemptID string) error
}

// SubmittedAnswer questionId 是题目序号；selectedOption 为 -1 表示未作答
type SubmittedAnswer struct {
	QuestionID     int  `json:"questionId" binding:"required,gte=1"`
	SelectedOption *int `json:"selectedOption" binding:"required,gte=-1"`
}

type SubmitAttemptReq struct {
	Responses []SubmittedAnswer `json:"responses" binding:"required,min=1,dive"`
}

type SaveDraftReq struct {
	QuizID           uint        `json:"quizId" binding:"required"`
	CurrentQuestion  int         `json:"currentQuestion" binding:"gte=0"`
	Answers          map[int]int `json:"answers"`
	RemainingSeconds int         `json:"remainingSeconds" binding:"gte=0"`
}

type AttemptSummary struct {
	AttemptID      string     `json:"attemptId"`
	Score          int        `json:"score"`
	TotalPoints    int        `json:"totalPoints"`
	Passed         bool       `json:"passed"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	Late           bool       `json:"late"`
}

func summarize(a *model.QuizAttempt) *AttemptSummary {
	return &AttemptSummary{
		AttemptID:      a.ID,
		Score:          a.Score,
		TotalPoints:    a.TotalPoints,
		Passed:         a.Passed,
		SubmittedAt:    a.SubmittedAt,
		ElapsedSeconds: a.ElapsedSeconds,
		Late:           a.Late,
	}
}

type StartedAttempt struct {
	AttemptID string    `json:"attemptId"`
	QuizID    uint      `json:"quizId"`
	TimeLimit int       `json:"timeLimit"`
	StartedAt time.Time `json:"startedAt"`
}

// ToAnswers 校验作答并去掉未作答项（selectedOption = -1）。
// 空列表在过滤之前就被拒绝；同一题号只能出现一次，未作答项也算。
func (r SubmitAttemptReq) ToAnswers() ([]grading.Answer, error) {
	if len(r.Responses) == 0 {
		return nil, fmt.Errorf("%w: responses must not be empty", util.ErrInvalidInput)
	}
	answers := make([]grading.Answer, 0, len(r.Responses))
	seen := make(map[int]struct{}, len(r.Responses))
	for i, resp := range r.Responses {
		if resp.QuestionID < 1 {
			return nil, fmt.Errorf("%w: responses[%d].questionId must be >= 1", util.ErrInvalidInput, i)
		}
		if resp.SelectedOption == nil || *resp.SelectedOption < -1 {
			return nil, fmt.Errorf("%w: responses[%d].selectedOption must be >= -1", util.ErrInvalidInput, i)
		}
		if _, dup := seen[resp.QuestionID]; dup {
			return nil, fmt.Errorf("%w: responses[%d].questionId %d is repeated", util.ErrInvalidInput, i, resp.QuestionID)
		}
		seen[resp.QuestionID] = struct{}{}
		if *resp.SelectedOption == -1 {
			continue
		}
		answers = append(answers, grading.Answer{QuestionID: resp.QuestionID, SelectedOption: *resp.SelectedOption})
	}
	return answers, nil
}

// QuizAttemptService 测验作答状态机：in_progress -> completed，定稿只发生一次
type QuizAttemptService struct {
	Access     *AccessService
	Catalog    *repository.CatalogRepository
	Attempts   *repository.QuizAttemptRepository
	Drafts     DraftStore
	Aggregator *ProgressAggregator
	Events     *EventService
	Settings   *ProgressSettings
	now        func() time.Time
}

func NewQuizAttemptService(
	access *AccessService,
	catalog *repository.CatalogRepository,
	attempts *repository.QuizAttemptRepository,
	drafts DraftStore,
	aggregator *ProgressAggregator,
	events *EventService,
	settings *ProgressSettings,
) *QuizAttemptService {
	return &QuizAttemptService{
		Access:     access,
		Catalog:    catalog,
		Attempts:   attempts,
		Drafts:     drafts,
		Aggregator: aggregator,
		Events:     events,
		Settings:   settings,
		now:        time.Now,
	}
}

// quizContext 学生身份、课时链、测验与报名记录
type quizContext struct {
	ref        *LessonRef
	quiz       *model.Quiz
	enrollment *model.Enrollment
}

func (s *QuizAttemptService) resolve(ctx context.Context, studentID, courseID, moduleID, lessonID uint) (*quizContext, error) {
	if _, err := s.Access.RequireRole(ctx, studentID, model.Student); err != nil {
		return nil, err
	}
	ref, err := s.Access.ResolveLesson(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.Catalog.FindQuizByLesson(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrQuizNotFound)
	}
	enrollment, err := s.Access.Enrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return &quizContext{ref: ref, quiz: quiz, enrollment: enrollment}, nil
}

func (s *QuizAttemptService) Start(ctx context.Context, studentID, courseID, moduleID, lessonID uint) (*StartedAttempt, error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.Start",
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("lesson.id", int64(lessonID)))
	defer span.End()

	qc, err := s.resolve(ctx, studentID, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	attempt := &model.QuizAttempt{
		StudentID: studentID,
		QuizID:    qc.quiz.ID,
		CourseID:  courseID,
		ModuleID:  moduleID,
		LessonID:  lessonID,
		Responses: []model.QuizResponse{},
		Status:    model.AttemptInProgress,
		StartedAt: now,
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	if err := s.Access.Enrollments.TouchLastAccessed(ctx, qc.enrollment.ID, now); err != nil {
		logger.Log.Warn("Failed to update last accessed", zap.Uint("enrollment_id", qc.enrollment.ID), zap.Error(err))
	}

	logger.Log.Info("Quiz attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.Uint("student_id", studentID),
		zap.Uint("quiz_id", qc.quiz.ID),
	)

	return &StartedAttempt{
		AttemptID: attempt.ID,
		QuizID:    qc.quiz.ID,
		TimeLimit: qc.quiz.TimeLimit,
		StartedAt: now,
	}, nil
}

// Submit 评分并定稿。对已定稿的作答返回 ErrAttemptAlreadySubmitted 和已保存的结果，不会重新评分。
func (s *QuizAttemptService) Submit(ctx context.Context, studentID, courseID, moduleID, lessonID uint, attemptID string, req SubmitAttemptReq) (*AttemptSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.Submit",
		attribute.String("attempt.id", attemptID),
		attribute.Int64("student.id", int64(studentID)))
	defer span.End()

	answers, err := req.ToAnswers()
	if err != nil {
		return nil, err
	}

	qc, err := s.resolve(ctx, studentID, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.QuizID != qc.quiz.ID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.IsFinal() {
		return s.duplicateSubmit(ctx, qc, attempt)
	}

	settings := s.Settings.Get()
	result := grading.Score(answers, qc.quiz.Questions, qc.quiz.PassingScore)
	now := s.now()
	elapsed := now.Sub(attempt.StartedAt)
	// 时限只由客户端执行，服务端仅标记超时提交
	late := qc.quiz.TimeLimit > 0 &&
		elapsed > time.Duration(qc.quiz.TimeLimit)*time.Minute+time.Duration(settings.QuizLateGraceSeconds)*time.Second

	attempt.Responses = result.Responses
	attempt.Score = result.Score
	attempt.PointsEarned = result.Score
	attempt.TotalPoints = result.TotalPoints
	attempt.Passed = result.Passed
	attempt.Status = model.AttemptCompleted
	attempt.SubmittedAt = &now
	attempt.ElapsedSeconds = int(elapsed.Seconds())
	attempt.Late = late

	finalized, err := s.Attempts.Finalize(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if !finalized {
		// 并发的另一次提交已定稿
		stored, err := s.Attempts.FindByID(ctx, attempt.ID)
		if err != nil {
			return nil, err
		}
		return s.duplicateSubmit(ctx, qc, stored)
	}

	if err := s.Drafts.Delete(ctx, attempt.ID); err != nil {
		logger.Log.Warn("Failed to delete attempt draft", zap.String("attempt_id", attempt.ID), zap.Error(err))
	}

	outcome := "failed"
	if attempt.Passed {
		outcome = "passed"
	}
	monitoring.QuizSubmissions.WithLabelValues(outcome).Inc()
	logger.Log.Info("Quiz attempt graded",
		zap.String("attempt_id", attempt.ID),
		zap.Uint("student_id", studentID),
		zap.Int("score", attempt.Score),
		zap.Int("total_points", attempt.TotalPoints),
		zap.Bool("passed", attempt.Passed),
		zap.Bool("late", late),
	)
	s.Events.Emit(ctx, util.EventQuizAttemptGraded, QuizAttemptGradedEvent{
		AttemptID:   attempt.ID,
		StudentID:   studentID,
		CourseID:    courseID,
		LessonID:    lessonID,
		QuizID:      attempt.QuizID,
		Score:       attempt.Score,
		TotalPoints: attempt.TotalPoints,
		Passed:      attempt.Passed,
		Late:        late,
		SubmittedAt: now,
	})

	if err := s.completeQuizLesson(ctx, qc, attempt); err != nil {
		return nil, err
	}
	return summarize(attempt), nil
}

func (s *QuizAttemptService) duplicateSubmit(ctx context.Context, qc *quizContext, stored *model.QuizAttempt) (*AttemptSummary, error) {
	monitoring.QuizSubmissions.WithLabelValues("duplicate").Inc()
	// 上次定稿后若课时完成未写入，这里补上
	if err := s.completeQuizLesson(ctx, qc, stored); err != nil {
		return nil, err
	}
	return summarize(stored), util.ErrAttemptAlreadySubmitted
}

func (s *QuizAttemptService) completeQuizLesson(ctx context.Context, qc *quizContext, attempt *model.QuizAttempt) error {
	if !attempt.Passed || !s.Settings.Get().QuizCompletesLesson {
		return nil
	}
	at := s.now()
	if attempt.SubmittedAt != nil {
		at = *attempt.SubmittedAt
	}
	_, err := s.Aggregator.CompleteLesson(ctx, qc.enrollment, qc.ref, nil, at)
	return err
}

func (s *QuizAttemptService) ownedAttempt(ctx context.Context, studentID uint, attemptID string) (*model.QuizAttempt, error) {
	if studentID == 0 {
		return nil, util.ErrUnauthenticated
	}
	if attemptID == "" {
		return nil, util.ErrAttemptNotFound
	}
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	// 不区分“不存在”和“不属于你”
	if attempt.StudentID != studentID {
		return nil, util.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *QuizAttemptService) Get(ctx context.Context, studentID uint, attemptID string) (*model.QuizAttempt, error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.Get", attribute.String("attempt.id", attemptID))
	defer span.End()
	return s.ownedAttempt(ctx, studentID, attemptID)
}

// ListMine 当前学生在该测验下的所有作答，最新的在前
func (s *QuizAttemptService) ListMine(ctx context.Context, studentID, courseID, moduleID, lessonID uint) ([]model.QuizAttempt, error) {
	qc, err := s.resolve(ctx, studentID, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByStudentAndQuiz(ctx, studentID, qc.quiz.ID)
	if err != nil {
		return nil, err
	}
	for i := range attempts {
		if !attempts[i].IsFinal() {
			attempts[i].Responses = nil
		}
	}
	return attempts, nil
}

func (s *QuizAttemptService) SaveDraft(ctx context.Context, studentID uint, attemptID string, req SaveDraftReq) (*model.AttemptDraft, error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.SaveDraft", attribute.String("attempt.id", attemptID))
	defer span.End()

	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinal() {
		return nil, util.ErrAttemptAlreadySubmitted
	}
	if req.QuizID != attempt.QuizID {
		return nil, util.ErrDraftMismatch
	}
	quiz, err := s.Catalog.FindQuizByLesson(ctx, attempt.LessonID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrQuizNotFound)
	}

	answers := req.Answers
	if answers == nil {
		answers = map[int]int{}
	}
	draft := &model.AttemptDraft{
		AttemptID:        attempt.ID,
		QuizID:           attempt.QuizID,
		CurrentQuestion:  req.CurrentQuestion,
		Answers:          answers,
		RemainingSeconds: req.RemainingSeconds,
		SavedAt:          s.now(),
	}
	if err := s.Drafts.Save(ctx, draft, s.draftTTL(attempt, quiz)); err != nil {
		return nil, err
	}
	return draft, nil
}

// draftTTL 草稿保留到作答时限结束后再加宽限期；不限时的测验只保留宽限期
func (s *QuizAttemptService) draftTTL(attempt *model.QuizAttempt, quiz *model.Quiz) time.Duration {
	grace := s.Settings.Get().DraftTTLGrace()
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	if quiz.TimeLimit <= 0 {
		return grace
	}
	deadline := attempt.StartedAt.Add(time.Duration(quiz.TimeLimit) * time.Minute)
	ttl := deadline.Sub(s.now()) + grace
	if ttl < grace {
		return grace
	}
	return ttl
}

func (s *QuizAttemptService) GetDraft(ctx context.Context, studentID uint, attemptID string) (*model.AttemptDraft, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinal() {
		return nil, util.ErrAttemptAlreadySubmitted
	}
	draft, err := s.Drafts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if draft.AttemptID != attempt.ID || draft.QuizID != attempt.QuizID {
		return nil, util.ErrDraftMismatch
	}
	return draft, nil
}
