// Package repository 提供了数据访问层的实现。
package repository

import (
	"sync"
	"time"

	"safechat-go/internal/model"
)

// 每个会话默认保留的最大交互条数。
const defaultMaxPerSession = 100

// InteractionRepository 定义了会话交互日志的访问接口。
// 日志仅存在于进程内存中：历史记录按设计不持久化，重启后即丢失。
type InteractionRepository interface {
	// Record 追加一轮交互；超出会话上限时静默淘汰最旧的一条。
	Record(sessionID, role, content string, categories map[string]int)
	// Recent 按时间顺序返回最近 limit 条交互；未知会话返回空切片，从不报错。
	Recent(sessionID string, limit int) []model.Interaction
	// CountUserTurns 统计会话留存窗口内的用户轮次数。
	CountUserTurns(sessionID string) int
	// PruneOlderThan 删除所有会话中早于 now-olderThan 的交互，
	// 清空后的会话整体删除。返回删除的交互数与会话数。
	PruneOlderThan(olderThan time.Duration) (interactions, sessions int)
	// Sessions 返回当前持有交互的全部会话 ID。
	Sessions() []string
}

// interactionRing 是单个会话的定长环形缓冲区，写满后覆盖最旧的一条。
type interactionRing struct {
	buf   []model.Interaction
	start int
	size  int
}

func (r *interactionRing) append(it model.Interaction) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = it
		r.size++
		return
	}
	r.buf[r.start] = it
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot 按时间顺序导出缓冲区内容。
func (r *interactionRing) snapshot() []model.Interaction {
	out := make([]model.Interaction, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

type memoryInteractionRepository struct {
	mu            sync.RWMutex
	sessions      map[string]*interactionRing
	maxPerSession int
}

// NewInteractionRepository 创建一个进程内的交互日志存储。
// maxPerSession <= 0 时使用默认上限。
func NewInteractionRepository(maxPerSession int) InteractionRepository {
	if maxPerSession <= 0 {
		maxPerSession = defaultMaxPerSession
	}
	return &memoryInteractionRepository{
		sessions:      make(map[string]*interactionRing),
		maxPerSession: maxPerSession,
	}
}

func (r *memoryInteractionRepository) Record(sessionID, role, content string, categories map[string]int) {
	// 复制 categories，保证已记录的交互不可变。
	var cats map[string]int
	if categories != nil {
		cats = make(map[string]int, len(categories))
		for k, v := range categories {
			cats[k] = v
		}
	}
	it := model.Interaction{
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
		Categories: cats,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ring, ok := r.sessions[sessionID]
	if !ok {
		ring = &interactionRing{buf: make([]model.Interaction, r.maxPerSession)}
		r.sessions[sessionID] = ring
	}
	ring.append(it)
}

func (r *memoryInteractionRepository) Recent(sessionID string, limit int) []model.Interaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ring, ok := r.sessions[sessionID]
	if !ok {
		return []model.Interaction{}
	}
	all := ring.snapshot()
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

func (r *memoryInteractionRepository) CountUserTurns(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ring, ok := r.sessions[sessionID]
	if !ok {
		return 0
	}
	count := 0
	for _, it := range ring.snapshot() {
		if it.Role == model.RoleUser {
			count++
		}
	}
	return count
}

func (r *memoryInteractionRepository) PruneOlderThan(olderThan time.Duration) (interactions, sessions int) {
	cutoff := time.Now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, ring := range r.sessions {
		kept := &interactionRing{buf: make([]model.Interaction, r.maxPerSession)}
		for _, it := range ring.snapshot() {
			if it.Timestamp.Before(cutoff) {
				interactions++
				continue
			}
			kept.append(it)
		}
		if kept.size == 0 {
			delete(r.sessions, sessionID)
			sessions++
			continue
		}
		r.sessions[sessionID] = kept
	}
	return interactions, sessions
}

func (r *memoryInteractionRepository) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
