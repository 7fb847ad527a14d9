package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Recompute 由完成数与课时总数推导总进度和状态。
// 没有课时时进度为 0；completed 状态不会回到 active。
func Recompute(completedCount, totalLessons int64, status model.EnrollmentStatus) (int, model.EnrollmentStatus) {
	progress := 0
	if totalLessons > 0 {
		progress = int(math.Round(100 * float64(completedCount) / float64(totalLessons)))
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	if status == model.EnrollmentCompleted || progress == 100 {
		return progress, model.EnrollmentCompleted
	}
	return progress, model.EnrollmentActive
}

type EnrollmentProgress struct {
	OverallProgress int                    `json:"overallProgress"`
	Status          model.EnrollmentStatus `json:"status"`
	CompletedCount  int64                  `json:"completedCount"`
	TotalLessons    int64                  `json:"totalLessons"`
	JustCompleted   bool                   `json:"-"`
}

// ProgressAggregator 从已完成课时重新计算报名进度，重复调用结果相同
type ProgressAggregator struct {
	Catalog     *repository.CatalogRepository
	Enrollments *repository.EnrollmentRepository
	Events      *EventService
	now         func() time.Time
}

func NewProgressAggregator(catalog *repository.CatalogRepository, enrollments *repository.EnrollmentRepository, events *EventService) *ProgressAggregator {
	return &ProgressAggregator{
		Catalog:     catalog,
		Enrollments: enrollments,
		Events:      events,
		now:         time.Now,
	}
}

func (a *ProgressAggregator) RecomputeEnrollment(ctx context.Context, enrollment *model.Enrollment) (*EnrollmentProgress, error) {
	ctx, span := tracing.StartSpan(ctx, "ProgressAggregator.RecomputeEnrollment",
		attribute.Int64("enrollment.id", int64(enrollment.ID)))
	defer span.End()

	total, err := a.Catalog.CountLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	// 完成数在写入事务内统计，避免并发重算用旧计数覆盖
	now := a.now()
	out, err := a.Enrollments.SaveProgress(ctx, enrollment.ID, now, func(completed int64, status model.EnrollmentStatus) (int, model.EnrollmentStatus) {
		return Recompute(completed, total, status)
	})
	if err != nil {
		return nil, err
	}
	progress, status, flipped := out.Progress, out.Status, out.Flipped

	enrollment.OverallProgress = progress
	enrollment.Status = status
	if flipped {
		enrollment.CompletedAt = &now
		monitoring.EnrollmentCompletions.Inc()
		logger.Log.Info("Enrollment completed",
			zap.Uint("enrollment_id", enrollment.ID),
			zap.Uint("student_id", enrollment.StudentID),
			zap.Uint("course_id", enrollment.CourseID),
		)
		a.Events.Emit(ctx, util.EventEnrollmentCompleted, EnrollmentCompletedEvent{
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			CourseID:     enrollment.CourseID,
			CompletedAt:  now,
		})
	}

	return &EnrollmentProgress{
		OverallProgress: progress,
		Status:          status,
		CompletedCount:  out.CompletedCount,
		TotalLessons:    total,
		JustCompleted:   flipped,
	}, nil
}

// CompleteLesson 幂等地记录课时完成并重算进度；已完成的课时只会触发重算
func (a *ProgressAggregator) CompleteLesson(ctx context.Context, enrollment *model.Enrollment, ref *LessonRef, snapshot *model.VideoSnapshot, at time.Time) (*EnrollmentProgress, error) {
	entry := &model.CompletedLesson{
		EnrollmentID:  enrollment.ID,
		ModuleID:      ref.Module.ID,
		LessonID:      ref.Lesson.ID,
		LessonType:    ref.Lesson.Type,
		VideoProgress: snapshot,
		CompletedAt:   &at,
	}
	newly, err := a.Enrollments.UpsertCompletedLesson(ctx, entry)
	if err != nil {
		return nil, err
	}

	if newly {
		monitoring.LessonCompletions.WithLabelValues(string(ref.Lesson.Type)).Inc()
		logger.Log.Info("Lesson completed",
			zap.Uint("enrollment_id", enrollment.ID),
			zap.Uint("student_id", enrollment.StudentID),
			zap.Uint("lesson_id", ref.Lesson.ID),
			zap.String("lesson_type", string(ref.Lesson.Type)),
		)
		a.Events.Emit(ctx, util.EventLessonCompleted, LessonCompletedEvent{
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			CourseID:     ref.Course.ID,
			ModuleID:     ref.Module.ID,
			LessonID:     ref.Lesson.ID,
			LessonType:   ref.Lesson.Type,
			CompletedAt:  at,
		})
	}

	return a.RecomputeEnrollment(ctx, enrollment)
}
