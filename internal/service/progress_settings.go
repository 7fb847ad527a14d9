package service

import (
	"learnhub_backend/internal/config"
	"sync"
)

// ProgressSettings 在服务之间共享 progress.* 配置，配置文件变更时整体替换
type ProgressSettings struct {
	mu  sync.RWMutex
	cfg config.ProgressConfig
}

func NewProgressSettings(cfg config.ProgressConfig) *ProgressSettings {
	return &ProgressSettings{cfg: cfg}
}

func (s *ProgressSettings) Get() config.ProgressConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ProgressSettings) Set(cfg config.ProgressConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}
