package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

// LessonRef 已校验存在的 课程/模块/课时 链
type LessonRef struct {
	Course *model.Course
	Module *model.CourseModule
	Lesson *model.Lesson
}

// AccessService 身份角色、报名关系与目录存在性检查
type AccessService struct {
	Users       *repository.UserRepository
	Catalog     *repository.CatalogRepository
	Enrollments *repository.EnrollmentRepository
}

func NewAccessService(users *repository.UserRepository, catalog *repository.CatalogRepository, enrollments *repository.EnrollmentRepository) *AccessService {
	return &AccessService{Users: users, Catalog: catalog, Enrollments: enrollments}
}

func (s *AccessService) Role(ctx context.Context, userID uint) (model.UserRole, error) {
	if userID == 0 {
		return "", util.ErrUnauthenticated
	}
	role, err := s.Users.FindRole(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrUnauthenticated
	}
	return role, err
}

func (s *AccessService) RequireRole(ctx context.Context, userID uint, allowed ...model.UserRole) (model.UserRole, error) {
	role, err := s.Role(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, r := range allowed {
		if role == r {
			return role, nil
		}
	}
	return role, util.ErrForbidden
}

// ResolveLesson 逐级校验，模块必须属于课程、课时必须属于模块
func (s *AccessService) ResolveLesson(ctx context.Context, courseID, moduleID, lessonID uint) (*LessonRef, error) {
	course, err := s.Catalog.FindCourse(ctx, courseID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrCourseNotFound)
	}
	module, err := s.Catalog.FindModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrModuleNotFound)
	}
	lesson, err := s.Catalog.FindLesson(ctx, moduleID, lessonID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrLessonNotFound)
	}
	return &LessonRef{Course: course, Module: module, Lesson: lesson}, nil
}

func (s *AccessService) Enrollment(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	enrollment, err := s.Enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrNotEnrolled)
	}
	return enrollment, nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
