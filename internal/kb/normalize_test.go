package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLStripsTrackingAndCase(t *testing.T) {
	got, err := NormalizeURL("HTTPS://Example.COM/article?utm_source=twitter&id=42")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/article?id=42", got)
}

func TestNormalizeURLTrimsTrailingSlash(t *testing.T) {
	got, err := NormalizeURL("https://example.com/path/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", got)
}

func TestDetectSourceType(t *testing.T) {
	assert.Equal(t, "video", DetectSourceType("https://youtube.com/watch?v=abc"))
	assert.Equal(t, "tweet", DetectSourceType("https://x.com/someone/status/1"))
	assert.Equal(t, "pdf", DetectSourceType("https://example.com/paper.pdf"))
	assert.Equal(t, "article", DetectSourceType("https://example.com/blog/post"))
}
