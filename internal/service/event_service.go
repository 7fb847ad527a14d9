package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/messaging"
	"time"

	"go.uber.org/zap"
)

type LessonCompletedEvent struct {
	EnrollmentID uint             `json:"enrollmentId"`
	StudentID    uint             `json:"studentId"`
	CourseID     uint             `json:"courseId"`
	ModuleID     uint             `json:"moduleId"`
	LessonID     uint             `json:"lessonId"`
	LessonType   model.LessonType `json:"lessonType"`
	CompletedAt  time.Time        `json:"completedAt"`
}

type EnrollmentCompletedEvent struct {
	EnrollmentID uint      `json:"enrollmentId"`
	StudentID    uint      `json:"studentId"`
	CourseID     uint      `json:"courseId"`
	CompletedAt  time.Time `json:"completedAt"`
}

type QuizAttemptGradedEvent struct {
	AttemptID   string    `json:"attemptId"`
	StudentID   uint      `json:"studentId"`
	CourseID    uint      `json:"courseId"`
	LessonID    uint      `json:"lessonId"`
	QuizID      uint      `json:"quizId"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"totalPoints"`
	Passed      bool      `json:"passed"`
	Late        bool      `json:"late"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// EventService 发布学习事件，失败只记日志，不影响主流程
type EventService struct {
	Publisher messaging.Publisher
}

func NewEventService(publisher messaging.Publisher) *EventService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &EventService{Publisher: publisher}
}

func (s *EventService) Emit(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.Publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.Log.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
