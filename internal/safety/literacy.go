package safety

// literacySnippets 是循环使用的 AI 素养提示列表，顺序固定。
var literacySnippets = []string{
	"Did you know? I don't have feelings; I use patterns in data to answer questions!",
	"AI tip: If something feels unsafe or confusing, talk to a trusted adult.",
	"I'm a program, not a person. I can't keep secrets, so don't share private info.",
}

// ShouldInjectLiteracy 判断当前用户轮次数是否命中注入节奏：
// 仅当 interval > 0 且轮次数是 interval 的正整数倍时注入。
func ShouldInjectLiteracy(userTurnCount, interval int) bool {
	return interval > 0 && userTurnCount > 0 && userTurnCount%interval == 0
}

// GetSnippet 按索引取素养提示，超出列表长度时循环复用。
// 列表为空时返回空串，调用方应跳过注入。
func GetSnippet(index int) string {
	if len(literacySnippets) == 0 {
		return ""
	}
	if index < 0 {
		index = -index
	}
	return literacySnippets[index%len(literacySnippets)]
}
