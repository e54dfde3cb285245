package safety

import (
	"regexp"

	"safechat-go/internal/config"
)

// neutralReplacement 是所有拟人化短语的统一替换文本。
// 注意它本身不得包含任何禁用短语，否则净化将失去幂等性。
const neutralReplacement = "I'm designed to assist"

// CleanseOutput 移除模型输出中的拟人化表述。
// 对配置的每个禁用短语做大小写不敏感匹配，替换其全部出现。
// 返回 (净化后文本, 是否发生修改, 年龄段对应的解释消息)；
// 未修改时解释消息为空。无匹配时为无副作用的直通。
func CleanseOutput(text, ageBand string) (string, bool, string) {
	modified := false
	for _, phrase := range config.Conf.Safety.Anthropomorphism.BannedPhrases {
		if phrase == "" {
			continue
		}
		var changed bool
		text, changed = replaceAllFold(text, phrase, neutralReplacement)
		if changed {
			modified = true
		}
	}
	if !modified {
		return text, false, ""
	}
	return text, true, GetAnthropomorphismExplanation(ageBand)
}

// replaceAllFold 以大小写不敏感方式替换 text 中 old 的所有出现。
// 通过 (?i) 正则做匹配，替换始终落在完整的匹配区间上，
// 模型输出中的任意 Unicode 文本不会被从字符中间截断。
func replaceAllFold(text, old, replacement string) (string, bool) {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(old))
	if err != nil {
		return text, false
	}
	if !re.MatchString(text) {
		return text, false
	}
	return re.ReplaceAllLiteralString(text, replacement), true
}
