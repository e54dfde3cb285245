package service

import (
	"context"
	"time"

	"safechat-go/internal/config"
	"safechat-go/internal/repository"
	"safechat-go/pkg/log"
)

// RetentionService 按保留策略周期性清理过期的会话交互日志。
type RetentionService struct {
	interactionRepo repository.InteractionRepository
}

// NewRetentionService 创建保留策略服务。
func NewRetentionService(interactionRepo repository.InteractionRepository) *RetentionService {
	return &RetentionService{interactionRepo: interactionRepo}
}

// Start 启动后台清理循环，ctx 取消时退出。
func (s *RetentionService) Start(ctx context.Context) {
	intervalHours := config.Conf.Retention.IntervalHours
	if intervalHours <= 0 {
		intervalHours = 1
	}
	interval := time.Duration(intervalHours) * time.Hour

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("保留策略清理循环已停止")
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
	log.Infof("保留策略清理循环已启动，间隔 %v", interval)
}

func (s *RetentionService) runOnce() {
	if !config.Conf.Retention.Enabled {
		return
	}
	days := config.Conf.Retention.Days
	if days <= 0 {
		days = 30
	}

	interactions, sessions := s.interactionRepo.PruneOlderThan(time.Duration(days) * 24 * time.Hour)
	if interactions > 0 || sessions > 0 {
		log.Infow("清理过期交互日志完成",
			"prunedInteractions", interactions,
			"prunedSessions", sessions,
		)
	}
}
