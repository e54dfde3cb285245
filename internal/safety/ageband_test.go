package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor(t *testing.T) {
	setTestSafetyConfig(t)

	assert.Equal(t, BandChild, BandFor(8))
	assert.Equal(t, BandChild, BandFor(12))
	assert.Equal(t, BandTeen, BandFor(13))
	assert.Equal(t, BandTeen, BandFor(17))
	assert.Equal(t, BandAdult, BandFor(18))
	assert.Equal(t, BandAdult, BandFor(99))
}

func TestBandForFallsBackToAdult(t *testing.T) {
	setTestSafetyConfig(t)

	// 超出边界表覆盖范围时回退为 adult
	assert.Equal(t, BandAdult, BandFor(200))
}

func TestSeverityAllowed(t *testing.T) {
	setTestSafetyConfig(t)

	// child 段任何类别出现严重度即不通过
	assert.False(t, SeverityAllowed(BandChild, map[string]int{"violence": 1}))
	assert.True(t, SeverityAllowed(BandChild, map[string]int{"violence": 0, "hate": 0}))

	// teen 段 violence 上限为 1
	assert.True(t, SeverityAllowed(BandTeen, map[string]int{"violence": 1}))
	assert.False(t, SeverityAllowed(BandTeen, map[string]int{"violence": 2}))
	assert.False(t, SeverityAllowed(BandTeen, map[string]int{"self_harm": 1}))

	// 未配置上限的类别不受限
	assert.True(t, SeverityAllowed(BandAdult, map[string]int{"unknown_category": 7}))

	// 未知年龄段没有上限配置，整体放行
	assert.True(t, SeverityAllowed("elder", map[string]int{"violence": 7}))

	// 空类别表恒通过
	assert.True(t, SeverityAllowed(BandChild, nil))
}
