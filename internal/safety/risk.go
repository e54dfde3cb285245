package safety

import (
	"strings"

	"safechat-go/internal/model"
)

// 风险等级。
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// 风险标记。
const (
	FlagRepeatedBoundaryProbing = "repeated_boundary_probing"
	FlagSelfHarmInterest        = "self_harm_interest"
	FlagRepeatedSexualTopic     = "repeated_sexual_topic"
)

// 评分权重与等级阈值。阈值可调但必须保持单调（high >= medium）。
const (
	boundaryHitWeight = 2
	sexualHitWeight   = 3
	selfHarmHitWeight = 5

	mediumScoreThreshold = 5
	highScoreThreshold   = 10
)

// boundaryTerms 是边界试探的固定短语表，对用户文本做大小写不敏感的子串匹配。
var boundaryTerms = []string{"bypass", "ignore rules", "jailbreak", "how to harm", "suicide"}

// AssessRisk 对给定的交互窗口做风险评估。
// 纯函数：只读输入，结果完全由窗口内容决定；空窗口得到零分低风险。
// 只统计用户轮次；一条消息命中多个边界短语只记一次。
func AssessRisk(interactions []model.Interaction) model.RiskAssessment {
	var boundaryHits, sexualHits, selfHarmHits int

	for _, inter := range interactions {
		if inter.Role != model.RoleUser {
			continue
		}
		lower := strings.ToLower(inter.Content)
		for _, term := range boundaryTerms {
			if strings.Contains(lower, term) {
				boundaryHits++
				break
			}
		}
		// 缺失的类别按零严重度处理，不算命中。
		if inter.Categories["sexual"] >= 1 {
			sexualHits++
		}
		if inter.Categories["self_harm"] >= 1 {
			selfHarmHits++
		}
	}

	score := boundaryHits*boundaryHitWeight + sexualHits*sexualHitWeight + selfHarmHits*selfHarmHitWeight

	flags := []string{}
	if boundaryHits >= 2 {
		flags = append(flags, FlagRepeatedBoundaryProbing)
	}
	if selfHarmHits >= 1 {
		flags = append(flags, FlagSelfHarmInterest)
	}
	if sexualHits >= 2 {
		flags = append(flags, FlagRepeatedSexualTopic)
	}

	level := RiskLevelLow
	switch {
	case score >= highScoreThreshold:
		level = RiskLevelHigh
	case score >= mediumScoreThreshold:
		level = RiskLevelMedium
	}

	return model.RiskAssessment{
		RiskScore: score,
		RiskLevel: level,
		Flags:     flags,
	}
}
