package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ReconcileStats struct {
	Scanned   int
	Completed int
	Failed    int
}

// ReconcileService 定时重算 active 报名的进度，修复部分失败留下的偏差
type ReconcileService struct {
	Enrollments *repository.EnrollmentRepository
	Aggregator  *ProgressAggregator
	BatchSize   int
}

func NewReconcileService(enrollments *repository.EnrollmentRepository, aggregator *ProgressAggregator, batchSize int) *ReconcileService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ReconcileService{Enrollments: enrollments, Aggregator: aggregator, BatchSize: batchSize}
}

func (s *ReconcileService) Run(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats
	err := s.Enrollments.ForEachActiveBatch(ctx, s.BatchSize, func(batch []model.Enrollment) error {
		for i := range batch {
			stats.Scanned++
			progress, err := s.Aggregator.RecomputeEnrollment(ctx, &batch[i])
			if err != nil {
				stats.Failed++
				logger.Log.Warn("Reconcile enrollment failed", zap.Uint("enrollment_id", batch[i].ID), zap.Error(err))
				continue
			}
			if progress.JustCompleted {
				stats.Completed++
			}
		}
		return ctx.Err()
	})
	return stats, err
}

// Schedule 注册到 cron；单次运行最长 30 分钟
func (s *ReconcileService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		start := time.Now()
		stats, err := s.Run(ctx)
		if err != nil {
			logger.Log.Error("Progress reconciliation aborted", zap.Error(err))
			return
		}
		logger.Log.Info("Progress reconciliation finished",
			zap.Int("scanned", stats.Scanned),
			zap.Int("completed", stats.Completed),
			zap.Int("failed", stats.Failed),
			zap.Duration("took", time.Since(start)),
		)
	})
}
