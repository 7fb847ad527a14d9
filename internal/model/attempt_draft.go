package model

import "time"

// AttemptDraft 客户端作答中的状态镜像（当前题号、已选答案、剩余时间），存放于 Redis
type AttemptDraft struct {
	AttemptID        string      `json:"attemptId"`
	QuizID           uint        `json:"quizId"`
	CurrentQuestion  int         `json:"currentQuestion"`
	Answers          map[int]int `json:"answers"` // questionNo -> selectedOption
	RemainingSeconds int         `json:"remainingSeconds"`
	SavedAt          time.Time   `json:"savedAt"`
}
