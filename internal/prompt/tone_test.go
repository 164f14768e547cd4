package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeVariant_KnownTones(t *testing.T) {
	assert.Equal(t, "Wistful memory reflection", DescribeVariant("nostalgic", 0))
	assert.Equal(t, "Vintage sound exploration", DescribeVariant("nostalgic", 1))
	assert.Equal(t, "Bittersweet musical memory", DescribeVariant("nostalgic", 2))
	assert.Equal(t, "Behind-the-scenes content", DescribeVariant("professional", 1))
	assert.Equal(t, "Chill creative sharing", DescribeVariant("casual", 2))
}

func TestDescribeVariant_UnknownToneUsesDefault(t *testing.T) {
	for _, tone := range []string{"", "melancholic", "NOSTALGIC"} {
		assert.Equal(t, "Detached creative observation", DescribeVariant(tone, 0), tone)
		assert.Equal(t, "Indifferent artistic update", DescribeVariant(tone, 1), tone)
		assert.Equal(t, "Emotionally distant content", DescribeVariant(tone, 2), tone)
	}
}

func TestDescribeVariant_ClampsIndex(t *testing.T) {
	assert.Equal(t, "Wistful memory reflection", DescribeVariant("nostalgic", -4))
	assert.Equal(t, "Bittersweet musical memory", DescribeVariant("nostalgic", 7))
	assert.Equal(t, "Emotionally distant content", DescribeVariant("unknown", 3))
}

func TestDescribeVariant_TotalAndDistinct(t *testing.T) {
	for _, tone := range KnownTones() {
		seen := map[string]bool{}
		for i := 0; i < VariantCount; i++ {
			phrase := DescribeVariant(tone, i)
			assert.NotEmpty(t, phrase, tone)
			assert.False(t, seen[phrase], "duplicate approach for %s", tone)
			seen[phrase] = true
		}
	}
}

func TestKnownTones(t *testing.T) {
	tones := KnownTones()
	assert.Len(t, tones, 15)
	assert.Contains(t, tones, "nostalgic")
	assert.IsIncreasing(t, tones)
}
