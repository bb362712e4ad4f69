package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEmptyIsUnknown(t *testing.T) {
	c := NewClassifier()
	info := c.Classify("")
	assert.Equal(t, "unknown", info.Category)
}

func TestClassifyCachesByRawString(t *testing.T) {
	c := NewClassifier()
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

	first := c.Classify(ua)
	second := c.Classify(ua)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.cache.Len())
}

func TestSplitOSSeparatesVersion(t *testing.T) {
	family, version := splitOS("Windows NT 10.0")
	assert.Equal(t, "Windows NT", family)
	assert.Equal(t, "10.0", version)
}
