package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// QuizResponse 评分时的快照，题目后续修改不影响历史结果
type QuizResponse struct {
	QuestionID     int    `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	CorrectOption  int    `json:"correctOption"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	Explanation    string `json:"explanation"`
}

// QuizAttempt in_progress -> completed，completed 之后不可变
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	StudentID      uint           `gorm:"index;not null" json:"studentId"`
	QuizID         uint           `gorm:"index;not null" json:"quizId"`
	CourseID       uint           `gorm:"index" json:"courseId"`
	ModuleID       uint           `json:"moduleId"`
	LessonID       uint           `gorm:"index" json:"lessonId"`
	Responses      []QuizResponse `gorm:"serializer:json;type:text" json:"responses"`
	Score          int            `gorm:"default:0" json:"score"`
	TotalPoints    int            `gorm:"default:0" json:"totalPoints"`
	PointsEarned   int            `gorm:"default:0" json:"pointsEarned"`
	Passed         bool           `gorm:"default:false" json:"passed"`
	Status         AttemptStatus  `gorm:"size:20;default:'in_progress';index" json:"status"`
	StartedAt      time.Time      `json:"startedAt"`
	SubmittedAt    *time.Time     `json:"submittedAt,omitempty"`
	ElapsedSeconds int            `gorm:"default:0" json:"elapsedSeconds"`
	Late           bool           `gorm:"default:false" json:"late"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsFinal() bool {
	return a.Status == AttemptCompleted
}
