package model

// ModerationExplain 说明一次策略拦截的原因，随被拦截的响应一起返回。
type ModerationExplain struct {
	Reason     string         `json:"reason"`
	Categories map[string]int `json:"categories,omitempty"`
	AgeBand    string         `json:"age_band"`
}

// ChatEnvelope 是聊天接口统一的响应载体。
// 策略拦截不是错误：被拦截的请求同样返回 200，载体中携带拦截原因。
type ChatEnvelope struct {
	Response          string             `json:"response"`
	AgeBand           string             `json:"age_band,omitempty"`
	SessionID         string             `json:"session_id,omitempty"`
	AgeGate           bool               `json:"age_gate,omitempty"`
	ModerationExplain *ModerationExplain `json:"moderation_explain,omitempty"`
	Risk              *RiskAssessment    `json:"risk,omitempty"`
	LiteracyInjected  bool               `json:"literacy_injected"`
}
