package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 学习事件路由键
const (
	EventLessonCompleted     = "lesson.completed"
	EventEnrollmentCompleted = "enrollment.completed"
	EventQuizAttemptGraded   = "quiz.attempt.graded"
)
