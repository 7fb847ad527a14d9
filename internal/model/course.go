package model

import (
	"gorm.io/datatypes"
)

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonQuiz  LessonType = "quiz"
)

// Course 课程目录数据，对进度引擎只读
// swagger:model Course
type Course struct {
	BaseModel
	Title        string         `gorm:"size:255;not null" json:"title"`
	InstructorID uint           `gorm:"index" json:"instructorId"`
	Modules      []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	CourseID uint     `gorm:"index;not null" json:"courseId"`
	Title    string   `gorm:"size:255;not null" json:"title"`
	Order    int      `gorm:"default:0" json:"order"`
	Lessons  []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	ModuleID uint       `gorm:"index;not null" json:"moduleId"`
	Title    string     `gorm:"size:255;not null" json:"title"`
	Type     LessonType `gorm:"size:10;not null" json:"type"`
	Order    int        `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Video Duration 为权威视频时长（秒），0 表示尚未探测
type Video struct {
	BaseModel
	LessonID uint    `gorm:"uniqueIndex;not null" json:"lessonId"`
	FileKey  string  `gorm:"size:255" json:"fileKey"`
	Duration float64 `gorm:"default:0" json:"duration"`
}

func (Video) TableName() string {
	return "videos"
}

// Quiz PassingScore 是绝对分数阈值，不是百分比
// swagger:model Quiz
type Quiz struct {
	BaseModel
	LessonID     uint       `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title        string     `gorm:"size:255" json:"title"`
	TimeLimit    int        `gorm:"default:0" json:"timeLimit"` // 分钟
	PassingScore int        `gorm:"default:0" json:"passingScore"`
	Questions    []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// TotalPoints 题库总分，与作答数量无关
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// Question 按序号 QuestionNo 定位，而非数据库 ID
// swagger:model Question
type Question struct {
	BaseModel
	QuizID        uint                        `gorm:"index;not null" json:"quizId"`
	QuestionNo    int                         `gorm:"not null" json:"questionNo"`
	Text          string                      `gorm:"type:text" json:"text"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectOption int                         `json:"correctOption"`
	Points        int                         `gorm:"not null;default:0" json:"points"`
	Explanation   string                      `gorm:"type:text" json:"explanation"`
}

func (Question) TableName() string {
	return "quiz_questions"
}
