// Package safety 实现了安全策略核心：年龄段解析、风险评估、
// 输出净化、AI 素养提示与分年龄段的安全话术。
// 包内逻辑全部是纯函数，不做任何外部调用，也不会失败。
package safety

import (
	"strings"

	"safechat-go/internal/config"
)

// 年龄段名称。
const (
	BandChild = "child"
	BandTeen  = "teen"
	BandAdult = "adult"
)

// BandFor 根据已验证年龄解析年龄段。
// 边界表按 max_age 升序配置，取第一个命中的段；无命中时回退为 adult。
func BandFor(age int) string {
	for _, band := range config.Conf.Safety.AgeBands {
		if age <= band.MaxAge {
			return band.Name
		}
	}
	return BandAdult
}

// SeverityAllowed 将各类别严重度与该年龄段配置的上限逐一比较，
// 任一类别严格超过上限即整体不通过。未配置上限的类别不受限。
func SeverityAllowed(band string, categories map[string]int) bool {
	var thresholds map[string]int
	for _, b := range config.Conf.Safety.AgeBands {
		if b.Name == band {
			thresholds = b.SeverityThresholds
			break
		}
	}
	if thresholds == nil {
		return true
	}
	for category, severity := range categories {
		limit, ok := thresholds[strings.ToLower(category)]
		if ok && severity > limit {
			return false
		}
	}
	return true
}
