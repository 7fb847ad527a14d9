package repository

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 课程/模块/课时/测验的只读查询，以及课时删除
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, courseID).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CatalogRepository) FindModule(ctx context.Context, courseID, moduleID uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.WithContext(ctx).Where("id = ? AND course_id = ?", moduleID, courseID).First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *CatalogRepository) FindLesson(ctx context.Context, moduleID, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).Where("id = ? AND module_id = ?", lessonID, moduleID).First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CatalogRepository) FindQuizByLesson(ctx context.Context, lessonID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_no asc, id asc")
		}).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *CatalogRepository) FindVideoByLesson(ctx context.Context, lessonID uint) (*model.Video, error) {
	var video model.Video
	err := r.DB.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// CountLessons 每次实时统计，课程编辑后立即生效
func (r *CatalogRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND course_modules.deleted_at IS NULL", courseID).
		Count(&count).Error
	return count, err
}

// DeleteLesson 删除课时及其视频/测验，返回被删除视频的文件键（可能为空）
func (r *CatalogRepository) DeleteLesson(ctx context.Context, lessonID uint) (string, error) {
	var fileKey string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video model.Video
		err := tx.Where("lesson_id = ?", lessonID).First(&video).Error
		if err == nil {
			fileKey = video.FileKey
			if err := tx.Delete(&video).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var quizIDs []uint
		if err := tx.Model(&model.Quiz{}).Where("lesson_id = ?", lessonID).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.Question{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", quizIDs).Delete(&model.Quiz{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Lesson{}, lessonID).Error
	})
	return fileKey, err
}

// VideosMissingDuration 时长未知（0）的视频，按 ID 升序
func (r *CatalogRepository) VideosMissingDuration(ctx context.Context, limit int) ([]model.Video, error) {
	var videos []model.Video
	err := r.DB.WithContext(ctx).
		Where("duration <= 0 AND file_key <> ''").
		Order("id").
		Limit(limit).
		Find(&videos).Error
	return videos, err
}

func (r *CatalogRepository) SetVideoDuration(ctx context.Context, videoID uint, duration float64) error {
	return r.DB.WithContext(ctx).Model(&model.Video{}).
		Where("id = ?", videoID).
		Update("duration", duration).Error
}
