package util

import "errors"

var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("permission denied")
	ErrNotEnrolled             = errors.New("not enrolled in this course")
	ErrCourseNotFound          = errors.New("course not found")
	ErrModuleNotFound          = errors.New("module not found")
	ErrLessonNotFound          = errors.New("lesson not found")
	ErrQuizNotFound            = errors.New("quiz not found")
	ErrVideoNotFound           = errors.New("video not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrProgressNotFound        = errors.New("no progress recorded yet")
	ErrEnrollmentNotFound      = errors.New("enrollment not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrDraftMismatch           = errors.New("draft does not belong to this attempt")
	ErrDraftNotFound           = errors.New("draft not found")
	ErrDraftUnavailable        = errors.New("draft storage unavailable")
)

// IsNotFound 所有“资源不存在”类错误
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrCourseNotFound, ErrModuleNotFound, ErrLessonNotFound, ErrQuizNotFound,
		ErrVideoNotFound, ErrAttemptNotFound, ErrProgressNotFound, ErrEnrollmentNotFound,
		ErrDraftNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
