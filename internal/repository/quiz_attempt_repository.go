package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *QuizAttemptRepository) FindByID(ctx context.Context, id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.DB.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) ListByStudentAndQuiz(ctx context.Context, studentID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("started_at desc").
		Find(&attempts).Error
	return attempts, err
}

// Finalize 条件更新 in_progress -> completed，返回 false 表示已被其他请求定稿
func (r *QuizAttemptRepository) Finalize(ctx context.Context, attempt *model.QuizAttempt) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(attempt).
		Where("status = ?", model.AttemptInProgress).
		Select("responses", "score", "total_points", "points_earned", "passed",
			"status", "submitted_at", "elapsed_seconds", "late").
		Updates(attempt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
