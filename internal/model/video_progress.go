package model

import "time"

// VideoProgress 每个 (course, module, lesson, student) 一条
// swagger:model VideoProgress
type VideoProgress struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID            uint       `gorm:"uniqueIndex:idx_video_progress;not null" json:"courseId"`
	ModuleID            uint       `gorm:"uniqueIndex:idx_video_progress;not null" json:"moduleId"`
	LessonID            uint       `gorm:"uniqueIndex:idx_video_progress;not null" json:"lessonId"`
	StudentID           uint       `gorm:"uniqueIndex:idx_video_progress;not null" json:"studentId"`
	WatchedDuration     float64    `gorm:"default:0" json:"watchedDuration"`
	TotalDuration       float64    `gorm:"default:0" json:"totalDuration"`
	LastWatchedPosition float64    `gorm:"default:0" json:"lastWatchedPosition"`
	IsCompleted         bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (VideoProgress) TableName() string {
	return "video_progress"
}

func (p *VideoProgress) Snapshot() *VideoSnapshot {
	return &VideoSnapshot{
		WatchedDuration:     p.WatchedDuration,
		TotalDuration:       p.TotalDuration,
		LastWatchedPosition: p.LastWatchedPosition,
	}
}
