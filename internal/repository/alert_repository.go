package repository

import (
	"sync"

	"safechat-go/internal/model"
)

// AlertRepository 定义了升级告警账本的访问接口。
// 账本只增不改，不做去重；持久化扇出由上层的升级服务负责。
type AlertRepository interface {
	// Append 追加一条告警。
	Append(alert model.Alert)
	// ListRecent 返回最近 limit 条告警，最新的在末尾，保持插入顺序。
	ListRecent(limit int) []model.Alert
}

type memoryAlertRepository struct {
	mu     sync.Mutex
	alerts []model.Alert
}

// NewAlertRepository 创建一个进程内的告警账本。
func NewAlertRepository() AlertRepository {
	return &memoryAlertRepository{}
}

func (r *memoryAlertRepository) Append(alert model.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

func (r *memoryAlertRepository) ListRecent(limit int) []model.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.alerts) {
		limit = len(r.alerts)
	}
	out := make([]model.Alert, limit)
	copy(out, r.alerts[len(r.alerts)-limit:])
	return out
}
