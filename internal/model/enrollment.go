package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// Enrollment 学生与课程一一对应；OverallProgress 只能由重算得到
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	StudentID        uint              `gorm:"uniqueIndex:idx_student_course;not null" json:"studentId"`
	CourseID         uint              `gorm:"uniqueIndex:idx_student_course;not null" json:"courseId"`
	Status           EnrollmentStatus  `gorm:"size:20;default:'active'" json:"status"`
	OverallProgress  int               `gorm:"default:0" json:"overallProgress"`
	LastAccessed     *time.Time        `json:"lastAccessed,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	CompletedLessons []CompletedLesson `gorm:"foreignKey:EnrollmentID" json:"completedLessons,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// VideoSnapshot 完成时刻的视频进度快照
type VideoSnapshot struct {
	WatchedDuration     float64 `json:"watchedDuration"`
	TotalDuration       float64 `json:"totalDuration"`
	LastWatchedPosition float64 `json:"lastWatchedPosition"`
}

// CompletedLesson 每个 (enrollment, lesson) 唯一，只做 upsert
// swagger:model CompletedLesson
type CompletedLesson struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	EnrollmentID  uint           `gorm:"uniqueIndex:idx_enrollment_lesson;not null" json:"enrollmentId"`
	ModuleID      uint           `gorm:"index" json:"moduleId"`
	LessonID      uint           `gorm:"uniqueIndex:idx_enrollment_lesson;not null" json:"lessonId"`
	LessonType    LessonType     `gorm:"size:10" json:"lessonType"`
	VideoProgress *VideoSnapshot `gorm:"serializer:json;type:text" json:"videoProgress,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (CompletedLesson) TableName() string {
	return "completed_lessons"
}
