package safety

import "strings"

// basePrompt 是所有年龄段共用的系统提示词。
const basePrompt = "You are a safety-focused educational assistant. Avoid personal, violent, sexual, hateful, or self-harm content. " +
	"If asked about restricted topics, gently decline and redirect to safe learning. You are not human; avoid emotional claims."

// ageBandAdditions 是按年龄段追加的提示词。
var ageBandAdditions = map[string]string{
	BandChild: "Keep language simple, encouraging, and curiosity-driven. Do not discuss mature themes.",
	BandTeen:  "Provide concise, age-appropriate explanations. If topic is sensitive, encourage consulting a trusted adult.",
	BandAdult: "Be concise and factual while preserving safety constraints.",
}

// BuildSystemPrompt 组装指定年龄段的系统提示词。
func BuildSystemPrompt(ageBand string) string {
	return strings.TrimSpace(basePrompt + " " + ageBandAdditions[ageBand])
}
