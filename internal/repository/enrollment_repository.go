package repository

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.DB.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindOrCreate 已存在则原样返回，重复报名不产生第二条记录
func (r *EnrollmentRepository) FindOrCreate(ctx context.Context, studentID, courseID uint) (*model.Enrollment, bool, error) {
	existing, err := r.FindByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	enrollment := &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentActive,
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(enrollment)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// 并发报名，另一请求已创建
		existing, err := r.FindByStudentAndCourse(ctx, studentID, courseID)
		return existing, false, err
	}
	return enrollment, true, nil
}

func (r *EnrollmentRepository) ListCompletedLessons(ctx context.Context, enrollmentID uint) ([]model.CompletedLesson, error) {
	var lessons []model.CompletedLesson
	err := r.DB.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at asc, id asc").
		Find(&lessons).Error
	return lessons, err
}

// UpsertCompletedLesson 先按 lessonId 查找再插入；已完成的记录保持不变。
// 返回值表示这次调用是否使课时首次进入完成状态。
func (r *EnrollmentRepository) UpsertCompletedLesson(ctx context.Context, cl *model.CompletedLesson) (bool, error) {
	newlyCompleted := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CompletedLesson
		err := tx.Where("enrollment_id = ? AND lesson_id = ?", cl.EnrollmentID, cl.LessonID).First(&existing).Error
		switch {
		case err == nil:
			if existing.CompletedAt != nil {
				*cl = existing
				return nil
			}
			res := tx.Model(&existing).
				Where("completed_at IS NULL").
				Select("completed_at", "video_progress").
				Updates(&model.CompletedLesson{
					CompletedAt:   cl.CompletedAt,
					VideoProgress: cl.VideoProgress,
				})
			if res.Error != nil {
				return res.Error
			}
			newlyCompleted = res.RowsAffected == 1
			cl.ID = existing.ID
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 唯一索引兜底并发插入
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
				DoNothing: true,
			}).Create(cl)
			if res.Error != nil {
				return res.Error
			}
			newlyCompleted = res.RowsAffected == 1
			return nil
		default:
			return err
		}
	})
	return newlyCompleted, err
}

func (r *EnrollmentRepository) CountCompletedLessons(ctx context.Context, enrollmentID uint) (int64, error) {
	return countCompleted(r.DB.WithContext(ctx), enrollmentID)
}

func countCompleted(db *gorm.DB, enrollmentID uint) (int64, error) {
	var count int64
	err := db.Model(&model.CompletedLesson{}).
		Where("enrollment_id = ? AND completed_at IS NOT NULL", enrollmentID).
		Count(&count).Error
	return count, err
}

// ProgressFunc 由事务内的完成数与当前状态推导进度和新状态
type ProgressFunc func(completedCount int64, status model.EnrollmentStatus) (int, model.EnrollmentStatus)

type ProgressOutcome struct {
	CompletedCount int64
	Progress       int
	Status         model.EnrollmentStatus
	Flipped        bool
}

// SaveProgress 锁定报名行后重新统计完成课时再写入进度，
// 并发的重算按提交顺序串行，不会用较早的计数覆盖较新的结果。
// 仅在 active 状态下翻转为 completed，Flipped 表示由本次调用完成了翻转；状态永远不会被写回 active。
func (r *EnrollmentRepository) SaveProgress(ctx context.Context, enrollmentID uint, at time.Time, compute ProgressFunc) (*ProgressOutcome, error) {
	var out ProgressOutcome
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Enrollment
		q := tx
		if supportsRowLocking(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&current, enrollmentID).Error; err != nil {
			return err
		}

		count, err := countCompleted(tx, enrollmentID)
		if err != nil {
			return err
		}
		out.CompletedCount = count
		out.Progress, out.Status = compute(count, current.Status)

		if err := tx.Model(&model.Enrollment{}).
			Where("id = ?", enrollmentID).
			Update("overall_progress", out.Progress).Error; err != nil {
			return err
		}
		if out.Status != model.EnrollmentCompleted {
			out.Status = current.Status
			return nil
		}
		res := tx.Model(&model.Enrollment{}).
			Where("id = ? AND status = ?", enrollmentID, model.EnrollmentActive).
			Updates(map[string]interface{}{
				"status":       model.EnrollmentCompleted,
				"completed_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		out.Flipped = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EnrollmentRepository) TouchLastAccessed(ctx context.Context, enrollmentID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ?", enrollmentID).
		Update("last_accessed", at).Error
}

func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.WithContext(ctx).Where("course_id = ?", courseID).Find(&enrollments).Error
	return enrollments, err
}

// ForEachActiveBatch 分批遍历 active 报名，供定时对账使用
func (r *EnrollmentRepository) ForEachActiveBatch(ctx context.Context, batchSize int, fn func([]model.Enrollment) error) error {
	var batch []model.Enrollment
	return r.DB.WithContext(ctx).
		Where("status = ?", model.EnrollmentActive).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func (r *EnrollmentRepository) DeleteCompletedLessonsByLesson(ctx context.Context, lessonID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("lesson_id = ?", lessonID).Delete(&model.CompletedLesson{})
	return res.RowsAffected, res.Error
}
