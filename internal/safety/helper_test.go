package safety

import (
	"testing"

	"safechat-go/internal/config"
)

// setTestSafetyConfig 写入测试用的安全策略配置，测试结束后还原。
func setTestSafetyConfig(t *testing.T) {
	t.Helper()
	old := config.Conf
	t.Cleanup(func() { config.Conf = old })

	config.Conf.Safety = config.SafetyConfig{
		AgeBands: []config.AgeBandConfig{
			{
				Name:   BandChild,
				MaxAge: 12,
				SeverityThresholds: map[string]int{
					"hate": 0, "self_harm": 0, "sexual": 0, "violence": 0,
				},
			},
			{
				Name:   BandTeen,
				MaxAge: 17,
				SeverityThresholds: map[string]int{
					"hate": 1, "self_harm": 0, "sexual": 0, "violence": 1,
				},
			},
			{
				Name:   BandAdult,
				MaxAge: 120,
				SeverityThresholds: map[string]int{
					"hate": 1, "self_harm": 1, "sexual": 1, "violence": 1,
				},
			},
		},
		Anthropomorphism: config.AnthropomorphismConfig{
			BannedPhrases: []string{"I love you", "I have feelings", "I'm your friend"},
		},
		Literacy: config.LiteracyConfig{InjectionInterval: 5},
		History: config.HistoryConfig{
			MaxInteractions: 100,
			RiskWindow:      30,
			LLMWindow:       10,
		},
	}
}
