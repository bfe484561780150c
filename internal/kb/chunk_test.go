package kb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortContentIsOneChunk(t *testing.T) {
	got := Chunk("short text")
	require.Len(t, got, 1)
	assert.Equal(t, "short text", got[0])
}

func TestChunkLongContentOverlapsAndSnapsToSentences(t *testing.T) {
	sentence := "This is a sentence that is reasonably long for testing purposes. "
	content := strings.Repeat(sentence, 30)

	chunks := Chunk(content)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), chunkTargetSize+1)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
	for i := 0; i+1 < len(chunks); i++ {
		assert.True(t, strings.HasSuffix(chunks[i], "."), "chunk %d should end at a sentence boundary", i)
		assert.Contains(t, chunks[i], chunks[i+1][:50], "chunk %d should overlap the next", i)
	}
}

func TestChunkEmpty(t *testing.T) {
	assert.Nil(t, Chunk(""))
	assert.Nil(t, Chunk("   "))
}

func TestChunkNeverExceedsTargetSizeWithShortTrailingSentence(t *testing.T) {
	sentence := "This is a sentence that is reasonably long for testing purposes. "
	// Ends on a short sentence. The last window starts chunkOverlap bytes
	// before the previous boundary, so the tail lands in a final chunk of
	// several hundred bytes; no chunk, that one included, may exceed
	// chunkTargetSize.
	content := strings.Repeat(sentence, 29) + "Short tail."

	chunks := Chunk(content)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), chunkTargetSize)
	}
}
