// 补全视频时长脚本
//
// 视频时长为 0 时进度上报不做上限校验。本地存储部署在导入视频后执行一次，
// 通过 ffprobe 读取文件时长并写回 videos 表。
//
// 用法: go run scripts/sync_video_durations.go

package main

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	if cfg.Storage.Type != "local" {
		log.Fatalf("仅支持本地存储，当前为 %s", cfg.Storage.Type)
	}

	if _, err := util.GetFFmpegVersion(); err != nil {
		log.Fatalf("未检测到 ffmpeg: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	svc := service.NewVideoDurationService(repository.NewCatalogRepository(db), cfg.Storage.LocalPath, service.FFprobeDuration)

	log.Println("开始补全视频时长...")
	stats, err := svc.SyncMissing(context.Background())
	if err != nil {
		log.Fatalf("补全失败: %v", err)
	}
	log.Printf("完成！更新 %d 个，失败 %d 个", stats.Updated, stats.Failed)
}
