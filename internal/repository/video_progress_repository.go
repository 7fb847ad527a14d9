package repository

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoProgressKey 唯一定位一条观看进度
type VideoProgressKey struct {
	CourseID  uint
	ModuleID  uint
	LessonID  uint
	StudentID uint
}

type VideoProgressRepository struct {
	DB *gorm.DB
}

func NewVideoProgressRepository(db *gorm.DB) *VideoProgressRepository {
	return &VideoProgressRepository{DB: db}
}

func (r *VideoProgressRepository) Find(ctx context.Context, key VideoProgressKey) (*model.VideoProgress, error) {
	var progress model.VideoProgress
	err := r.DB.WithContext(ctx).
		Where("course_id = ? AND module_id = ? AND lesson_id = ? AND student_id = ?",
			key.CourseID, key.ModuleID, key.LessonID, key.StudentID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Apply 在行锁内读取当前记录（不存在时为 nil），交给 merge 计算新状态后写回。
// 首次写入撞上并发插入时重试一次，第二次会读到对方的记录并在其基础上合并。
func (r *VideoProgressRepository) Apply(ctx context.Context, key VideoProgressKey, merge func(current *model.VideoProgress) *model.VideoProgress) (*model.VideoProgress, error) {
	var result *model.VideoProgress
	for attempt := 0; attempt < 2; attempt++ {
		inserted := true
		err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx.Where("course_id = ? AND module_id = ? AND lesson_id = ? AND student_id = ?",
				key.CourseID, key.ModuleID, key.LessonID, key.StudentID)
			if supportsRowLocking(tx) {
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}

			var current model.VideoProgress
			err := q.First(&current).Error
			switch {
			case err == nil:
				result = merge(&current)
				result.ID = current.ID
				return tx.Save(result).Error
			case errors.Is(err, gorm.ErrRecordNotFound):
				result = merge(nil)
				result.CourseID = key.CourseID
				result.ModuleID = key.ModuleID
				result.LessonID = key.LessonID
				result.StudentID = key.StudentID
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(result)
				if res.Error != nil {
					return res.Error
				}
				inserted = res.RowsAffected == 1
				return nil
			default:
				return err
			}
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			return result, nil
		}
	}
	return nil, errors.New("video progress: concurrent insert retry exhausted")
}

func (r *VideoProgressRepository) DeleteByLesson(ctx context.Context, lessonID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("lesson_id = ?", lessonID).Delete(&model.VideoProgress{})
	return res.RowsAffected, res.Error
}

// sqlite 不支持 SELECT ... FOR UPDATE，其写事务本身是串行的
func supportsRowLocking(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}
