package model

import "time"

// 交互角色。
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Interaction 代表会话中的一轮交互。创建后不可变，追加顺序即时间顺序。
// Categories 仅在经过内容安全检查的用户轮次上存在，机器人轮次为 nil。
type Interaction struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Categories map[string]int `json:"categories,omitempty"`
}

// RiskAssessment 是对会话近期行为的风险评估结果。
// 它是每次请求从交互日志现算的派生值，从不缓存、从不落盘。
type RiskAssessment struct {
	RiskScore int      `json:"risk_score"`
	RiskLevel string   `json:"risk_level"`
	Flags     []string `json:"flags"`
}

// Alert 是一条升级记录，追加后不可修改，顺序即插入顺序。
type Alert struct {
	Timestamp time.Time              `json:"timestamp"`
	Kind      string                 `json:"kind"`
	SessionID string                 `json:"session_id"`
	Detail    map[string]interface{} `json:"detail"`
}
