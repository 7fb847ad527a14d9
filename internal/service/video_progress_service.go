package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckpointReq 播放端上报的进度；指针用于区分缺失与 0
type CheckpointReq struct {
	WatchedDuration     *float64 `json:"watchedDuration" binding:"required,gte=0"`
	LastWatchedPosition *float64 `json:"lastWatchedPosition" binding:"required,gte=0"`
	TotalDuration       *float64 `json:"totalDuration" binding:"required,gte=0"`
}

type Checkpoint struct {
	WatchedDuration     float64
	LastWatchedPosition float64
	TotalDuration       float64
}

func (r CheckpointReq) Checkpoint() (Checkpoint, error) {
	if r.WatchedDuration == nil || r.LastWatchedPosition == nil || r.TotalDuration == nil {
		return Checkpoint{}, fmt.Errorf("%w: watchedDuration, lastWatchedPosition and totalDuration are required", util.ErrInvalidInput)
	}
	return Checkpoint{
		WatchedDuration:     *r.WatchedDuration,
		LastWatchedPosition: *r.LastWatchedPosition,
		TotalDuration:       *r.TotalDuration,
	}, nil
}

type CheckpointResult struct {
	IsCompleted         bool    `json:"isCompleted"`
	WatchedDuration     float64 `json:"watchedDuration"`
	TotalDuration       float64 `json:"totalDuration"`
	LastWatchedPosition float64 `json:"lastWatchedPosition"`
	PercentageWatched   int     `json:"percentageWatched"`
}

type VideoProgressView struct {
	*model.VideoProgress
	PercentageWatched int     `json:"percentageWatched"`
	ResumePosition    float64 `json:"resumePosition"`
}

// ValidateCheckpoint 时长为 0 表示视频时长未知，此时不做上限检查
func ValidateCheckpoint(cp Checkpoint, videoDuration, tolerance float64) error {
	for name, v := range map[string]float64{
		"watchedDuration":     cp.WatchedDuration,
		"lastWatchedPosition": cp.LastWatchedPosition,
		"totalDuration":       cp.TotalDuration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", util.ErrInvalidInput, name)
		}
	}
	if videoDuration <= 0 {
		return nil
	}

	limit := videoDuration * tolerance
	if cp.WatchedDuration > limit {
		return fmt.Errorf("%w: watchedDuration %.2f exceeds video length %.2f", util.ErrInvalidInput, cp.WatchedDuration, videoDuration)
	}
	if cp.TotalDuration > limit {
		return fmt.Errorf("%w: totalDuration %.2f exceeds video length %.2f", util.ErrInvalidInput, cp.TotalDuration, videoDuration)
	}
	return nil
}

// MergeCheckpoint 单调合并：已观看时长取最大值，播放位置与总时长取最新上报，
// 完成标记一旦为 true 不再清除。stored 为 nil 表示首次上报。
func MergeCheckpoint(stored *model.VideoProgress, cp Checkpoint, now time.Time) *model.VideoProgress {
	next := &model.VideoProgress{}
	if stored != nil {
		copied := *stored
		next = &copied
	}

	if cp.WatchedDuration > next.WatchedDuration {
		next.WatchedDuration = cp.WatchedDuration
	}
	next.LastWatchedPosition = cp.LastWatchedPosition
	next.TotalDuration = cp.TotalDuration

	// 合并后的已观看时长不小于本次上报值，乱序到达的完成上报不会丢失
	if !next.IsCompleted && cp.TotalDuration > 0 && next.WatchedDuration >= cp.TotalDuration {
		next.IsCompleted = true
		next.CompletedAt = &now
	}
	return next
}

func PercentageWatched(watched, total float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * watched / total))
	if pct > 100 {
		return 100
	}
	return pct
}

// ResumePosition 已看完且停在结尾附近时从头播放
func ResumePosition(p *model.VideoProgress, restartWindow float64) float64 {
	if p.IsCompleted && p.TotalDuration-p.LastWatchedPosition <= restartWindow {
		return 0
	}
	return p.LastWatchedPosition
}

type VideoProgressService struct {
	Access     *AccessService
	Catalog    *repository.CatalogRepository
	Progress   *repository.VideoProgressRepository
	Enrollment *repository.EnrollmentRepository
	Aggregator *ProgressAggregator
	Settings   *ProgressSettings
	now        func() time.Time
}

func NewVideoProgressService(
	access *AccessService,
	catalog *repository.CatalogRepository,
	progress *repository.VideoProgressRepository,
	enrollments *repository.EnrollmentRepository,
	aggregator *ProgressAggregator,
	settings *ProgressSettings,
) *VideoProgressService {
	return &VideoProgressService{
		Access:     access,
		Catalog:    catalog,
		Progress:   progress,
		Enrollment: enrollments,
		Aggregator: aggregator,
		Settings:   settings,
		now:        time.Now,
	}
}

func (s *VideoProgressService) SaveCheckpoint(ctx context.Context, studentID, courseID, moduleID, lessonID uint, cp Checkpoint) (*CheckpointResult, error) {
	ctx, span := tracing.StartSpan(ctx, "VideoProgressService.SaveCheckpoint",
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("lesson.id", int64(lessonID)))
	defer span.End()

	if studentID == 0 {
		return nil, util.ErrUnauthenticated
	}
	ref, err := s.Access.ResolveLesson(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.Access.Enrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	video, err := s.Catalog.FindVideoByLesson(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrVideoNotFound)
	}

	settings := s.Settings.Get()
	if err := ValidateCheckpoint(cp, video.Duration, settings.DurationTolerance); err != nil {
		monitoring.VideoCheckpoints.WithLabelValues("rejected").Inc()
		logger.Log.Debug("Checkpoint rejected",
			zap.Uint("student_id", studentID),
			zap.Uint("lesson_id", lessonID),
			zap.Error(err),
		)
		return nil, err
	}

	now := s.now()
	key := repository.VideoProgressKey{CourseID: courseID, ModuleID: moduleID, LessonID: lessonID, StudentID: studentID}
	merged, err := s.Progress.Apply(ctx, key, func(current *model.VideoProgress) *model.VideoProgress {
		return MergeCheckpoint(current, cp, now)
	})
	if err != nil {
		return nil, err
	}
	monitoring.VideoCheckpoints.WithLabelValues("accepted").Inc()

	if err := s.Enrollment.TouchLastAccessed(ctx, enrollment.ID, now); err != nil {
		return nil, err
	}

	// 每次完成态上报都补写一次，中途失败可在下一次上报时自愈
	if merged.IsCompleted {
		completedAt := now
		if merged.CompletedAt != nil {
			completedAt = *merged.CompletedAt
		}
		if _, err := s.Aggregator.CompleteLesson(ctx, enrollment, ref, merged.Snapshot(), completedAt); err != nil {
			return nil, err
		}
	}

	return &CheckpointResult{
		IsCompleted:         merged.IsCompleted,
		WatchedDuration:     merged.WatchedDuration,
		TotalDuration:       merged.TotalDuration,
		LastWatchedPosition: merged.LastWatchedPosition,
		PercentageWatched:   PercentageWatched(merged.WatchedDuration, merged.TotalDuration),
	}, nil
}

func (s *VideoProgressService) GetProgress(ctx context.Context, studentID, courseID, moduleID, lessonID uint) (*VideoProgressView, error) {
	ctx, span := tracing.StartSpan(ctx, "VideoProgressService.GetProgress",
		attribute.Int64("lesson.id", int64(lessonID)))
	defer span.End()

	if studentID == 0 {
		return nil, util.ErrUnauthenticated
	}
	if _, err := s.Access.ResolveLesson(ctx, courseID, moduleID, lessonID); err != nil {
		return nil, err
	}
	if _, err := s.Access.Enrollment(ctx, studentID, courseID); err != nil {
		return nil, err
	}

	key := repository.VideoProgressKey{CourseID: courseID, ModuleID: moduleID, LessonID: lessonID, StudentID: studentID}
	progress, err := s.Progress.Find(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	return &VideoProgressView{
		VideoProgress:     progress,
		PercentageWatched: PercentageWatched(progress.WatchedDuration, progress.TotalDuration),
		ResumePosition:    ResumePosition(progress, s.Settings.Get().ResumeRestartWindowSeconds),
	}, nil
}
