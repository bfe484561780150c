package kb

import "strings"

// Chunking parameters (step 9): target window, overlap, and a floor below
// which a trailing fragment is folded into the previous chunk rather than
// kept standalone, when the two together fit in chunkTargetSize.
const (
	chunkTargetSize = 800
	chunkOverlap    = 200
	chunkMinSize    = 100
)

var sentenceEnders = []byte{'.', '!', '?'}

// Chunk splits cleaned content into overlapping windows, snapping each
// boundary to the nearest sentence end within a small lookback when one
// exists, so chunks don't routinely split mid-sentence.
func Chunk(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= chunkTargetSize {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := start + chunkTargetSize
		if end >= len(content) {
			end = len(content)
		} else {
			end = snapToSentenceEnd(content, start, end)
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(content) {
			break
		}
		next := end - chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return mergeTrailingShortChunk(chunks)
}

// snapToSentenceEnd looks back up to 100 bytes from end for a sentence
// terminator; if found, the boundary moves just past it.
func snapToSentenceEnd(content string, start, end int) int {
	lookback := end - 100
	if lookback < start {
		lookback = start
	}
	for i := end; i > lookback; i-- {
		if i >= len(content) {
			continue
		}
		for _, ch := range sentenceEnders {
			if content[i-1] == ch {
				return i
			}
		}
	}
	return end
}

// mergeTrailingShortChunk folds a too-small final fragment into its
// predecessor, unless doing so would push the combined chunk past the
// chunkTargetSize boundary, in which case the fragment stands alone.
func mergeTrailingShortChunk(chunks []string) []string {
	if len(chunks) < 2 {
		return chunks
	}
	last := chunks[len(chunks)-1]
	if len(last) >= chunkMinSize {
		return chunks
	}
	penultimate := chunks[len(chunks)-2]
	combined := strings.TrimSpace(penultimate + " " + last)
	if len(combined) > chunkTargetSize {
		return chunks
	}
	merged := chunks[:len(chunks)-2]
	return append(merged, combined)
}
