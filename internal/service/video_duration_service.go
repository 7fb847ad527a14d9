package service

import (
	"context"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"path/filepath"

	"go.uber.org/zap"
)

// DurationProbe 返回视频文件时长（秒）
type DurationProbe func(path string) (float64, error)

// FFprobeDuration 通过 ffprobe 读取时长
func FFprobeDuration(path string) (float64, error) {
	info, err := util.GetVideoInfo(path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

type DurationSyncStats struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// VideoDurationService 为时长为 0 的视频补全时长。
// 时长为 0 时进度上报跳过上限校验，补全后校验才生效
type VideoDurationService struct {
	Catalog *repository.CatalogRepository
	Root    string
	Probe   DurationProbe
	Limit   int
}

func NewVideoDurationService(catalog *repository.CatalogRepository, root string, probe DurationProbe) *VideoDurationService {
	if probe == nil {
		probe = FFprobeDuration
	}
	return &VideoDurationService{Catalog: catalog, Root: root, Probe: probe, Limit: 500}
}

func (s *VideoDurationService) SyncMissing(ctx context.Context) (DurationSyncStats, error) {
	var stats DurationSyncStats

	videos, err := s.Catalog.VideosMissingDuration(ctx, s.Limit)
	if err != nil {
		return stats, err
	}

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		d, err := s.Probe(filepath.Join(s.Root, filepath.Clean(v.FileKey)))
		if err != nil || d <= 0 {
			stats.Failed++
			logger.Log.Warn("Failed to probe video duration",
				zap.Uint("video_id", v.ID), zap.String("file_key", v.FileKey), zap.Error(err))
			continue
		}
		if err := s.Catalog.SetVideoDuration(ctx, v.ID, d); err != nil {
			return stats, err
		}
		stats.Updated++
	}
	return stats, nil
}
