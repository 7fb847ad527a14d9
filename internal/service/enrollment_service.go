package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type EnrollmentService struct {
	Access      *AccessService
	Enrollments *repository.EnrollmentRepository
	Aggregator  *ProgressAggregator
}

func NewEnrollmentService(access *AccessService, enrollments *repository.EnrollmentRepository, aggregator *ProgressAggregator) *EnrollmentService {
	return &EnrollmentService{Access: access, Enrollments: enrollments, Aggregator: aggregator}
}

type EnrollmentProgressView struct {
	EnrollmentID     uint                    `json:"enrollmentId"`
	CourseID         uint                    `json:"courseId"`
	Status           model.EnrollmentStatus  `json:"status"`
	OverallProgress  int                     `json:"overallProgress"`
	CompletedCount   int64                   `json:"completedCount"`
	TotalLessons     int64                   `json:"totalLessons"`
	LastAccessed     *time.Time              `json:"lastAccessed,omitempty"`
	CompletedAt      *time.Time              `json:"completedAt,omitempty"`
	CompletedLessons []model.CompletedLesson `json:"completedLessons"`
}

// Enroll 重复报名返回已有记录，created 为 false
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uint) (*model.Enrollment, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.Enroll", attribute.Int64("course.id", int64(courseID)))
	defer span.End()

	if _, err := s.Access.RequireRole(ctx, studentID, model.Student); err != nil {
		return nil, false, err
	}
	if _, err := s.Access.Catalog.FindCourse(ctx, courseID); err != nil {
		return nil, false, notFoundAs(err, util.ErrCourseNotFound)
	}

	enrollment, created, err := s.Enrollments.FindOrCreate(ctx, studentID, courseID)
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Log.Info("Student enrolled",
			zap.Uint("enrollment_id", enrollment.ID),
			zap.Uint("student_id", studentID),
			zap.Uint("course_id", courseID),
		)
	}
	return enrollment, created, nil
}

// GetProgress 返回前先按当前课程结构重算一次
func (s *EnrollmentService) GetProgress(ctx context.Context, studentID, courseID uint) (*EnrollmentProgressView, error) {
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.GetProgress", attribute.Int64("course.id", int64(courseID)))
	defer span.End()

	if studentID == 0 {
		return nil, util.ErrUnauthenticated
	}
	enrollment, err := s.Access.Enrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	progress, err := s.Aggregator.RecomputeEnrollment(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	lessons, err := s.Enrollments.ListCompletedLessons(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &EnrollmentProgressView{
		EnrollmentID:     enrollment.ID,
		CourseID:         courseID,
		Status:           progress.Status,
		OverallProgress:  progress.OverallProgress,
		CompletedCount:   progress.CompletedCount,
		TotalLessons:     progress.TotalLessons,
		LastAccessed:     enrollment.LastAccessed,
		CompletedAt:      enrollment.CompletedAt,
		CompletedLessons: lessons,
	}, nil
}
