package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type LessonRemoval struct {
	LessonID           uint  `json:"lessonId"`
	RemovedCompletions int64 `json:"removedCompletions"`
	RemovedProgress    int64 `json:"removedProgress"`
	Recomputed         int   `json:"recomputedEnrollments"`
}

// LessonCleanupService 删除课时时清理学习记录并重算该课程下所有报名
type LessonCleanupService struct {
	Access        *AccessService
	Catalog       *repository.CatalogRepository
	Enrollments   *repository.EnrollmentRepository
	VideoProgress *repository.VideoProgressRepository
	Storage       *StorageService
	Aggregator    *ProgressAggregator
}

func NewLessonCleanupService(
	access *AccessService,
	catalog *repository.CatalogRepository,
	enrollments *repository.EnrollmentRepository,
	videoProgress *repository.VideoProgressRepository,
	storage *StorageService,
	aggregator *ProgressAggregator,
) *LessonCleanupService {
	return &LessonCleanupService{
		Access:        access,
		Catalog:       catalog,
		Enrollments:   enrollments,
		VideoProgress: videoProgress,
		Storage:       storage,
		Aggregator:    aggregator,
	}
}

func (s *LessonCleanupService) RemoveLesson(ctx context.Context, userID, courseID, moduleID, lessonID uint) (*LessonRemoval, error) {
	ctx, span := tracing.StartSpan(ctx, "LessonCleanupService.RemoveLesson",
		attribute.Int64("course.id", int64(courseID)),
		attribute.Int64("lesson.id", int64(lessonID)))
	defer span.End()

	role, err := s.Access.RequireRole(ctx, userID, model.Instructor, model.Admin)
	if err != nil {
		return nil, err
	}
	ref, err := s.Access.ResolveLesson(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	if role != model.Admin && ref.Course.InstructorID != userID {
		return nil, util.ErrForbidden
	}

	fileKey, err := s.Catalog.DeleteLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	result := &LessonRemoval{LessonID: lessonID}
	if result.RemovedCompletions, err = s.Enrollments.DeleteCompletedLessonsByLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	if result.RemovedProgress, err = s.VideoProgress.DeleteByLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	if fileKey != "" {
		if err := s.Storage.Delete(ctx, fileKey); err != nil {
			logger.Log.Warn("Failed to delete lesson video file",
				zap.Uint("lesson_id", lessonID),
				zap.String("file_key", fileKey),
				zap.Error(err),
			)
		}
	}

	enrollments, err := s.Enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for i := range enrollments {
		if _, err := s.Aggregator.RecomputeEnrollment(ctx, &enrollments[i]); err != nil {
			return nil, err
		}
		result.Recomputed++
	}

	logger.Log.Info("Lesson removed",
		zap.Uint("course_id", courseID),
		zap.Uint("lesson_id", lessonID),
		zap.Int64("removed_completions", result.RemovedCompletions),
		zap.Int("recomputed", result.Recomputed),
	)
	return result, nil
}
