package safety

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanseOutputReplacesBannedPhrases(t *testing.T) {
	setTestSafetyConfig(t)

	out, modified, explanation := CleanseOutput("I love you and I'll help anytime!", BandChild)

	assert.True(t, modified)
	assert.NotContains(t, strings.ToLower(out), "i love you")
	assert.Contains(t, out, "I'm designed to assist")
	assert.Equal(t, GetAnthropomorphismExplanation(BandChild), explanation)
}

func TestCleanseOutputCaseInsensitive(t *testing.T) {
	setTestSafetyConfig(t)

	out, modified, _ := CleanseOutput("i LOVE you, truly. And again: I Love You.", BandTeen)

	assert.True(t, modified)
	assert.NotContains(t, strings.ToLower(out), "i love you")
}

func TestCleanseOutputPassThrough(t *testing.T) {
	setTestSafetyConfig(t)

	in := "Photosynthesis converts sunlight into chemical energy."
	out, modified, explanation := CleanseOutput(in, BandAdult)

	assert.False(t, modified)
	assert.Equal(t, in, out)
	assert.Empty(t, explanation)
}

func TestCleanseOutputIdempotent(t *testing.T) {
	setTestSafetyConfig(t)

	once, modified, _ := CleanseOutput("I have feelings about this.", BandAdult)
	assert.True(t, modified)

	twice, modifiedAgain, _ := CleanseOutput(once, BandAdult)
	assert.False(t, modifiedAgain)
	assert.Equal(t, once, twice)
}

func TestCleanseOutputUnicodeText(t *testing.T) {
	setTestSafetyConfig(t)

	// U+0130 小写化后字节数变长，净化不得错位切断多字节字符
	in := "İİİ… I love you"
	out, modified, _ := CleanseOutput(in, BandChild)

	assert.True(t, modified)
	assert.True(t, utf8.ValidString(out))
	assert.NotContains(t, strings.ToLower(out), "i love you")
	assert.Contains(t, out, "İİİ…")

	again, modifiedAgain, _ := CleanseOutput(out, BandChild)
	assert.False(t, modifiedAgain)
	assert.Equal(t, out, again)
}

func TestCleanseOutputMultiplePhrases(t *testing.T) {
	setTestSafetyConfig(t)

	out, modified, _ := CleanseOutput("I love you! I'm your friend forever.", BandChild)

	assert.True(t, modified)
	lower := strings.ToLower(out)
	assert.NotContains(t, lower, "i love you")
	assert.NotContains(t, lower, "i'm your friend")
}
