package kb

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

type fakeExtractor struct {
	extracted *Extracted
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, sourceType, url string) (*Extracted, error) {
	return f.extracted, f.err
}

type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}

func newTestPipeline(t *testing.T, extracted *Extracted, embedder Embedder) *Pipeline {
	t.Helper()
	st := store.New(storetest.NewMemDriver())
	extractor := &fakeExtractor{extracted: extracted}
	return NewPipeline(st, embedder, extractor, t.TempDir(), t.TempDir(), slog.Default())
}

func TestPipelineIngestURLChunksAndEmbeds(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Title: "A Title", Content: content}, &fakeEmbedder{dim: 4})

	source, err := p.Ingest(context.Background(), &IngestOptions{
		GroupFolder: "test-group",
		URL:         "https://example.com/a",
	})
	require.NoError(t, err)
	assert.Equal(t, "A Title", source.Title)
	assert.NotEmpty(t, source.ContentHash)
}

func TestPipelineIngestDuplicateURLRejected(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Content: content}, &fakeEmbedder{dim: 4})

	ctx := context.Background()
	_, err := p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.NoError(t, err)

	_, err = p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.ErrorIs(t, err, ErrAlreadyIngested)
}

func TestPipelineIngestDuplicateContentDifferentURLRejected(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Content: content}, &fakeEmbedder{dim: 4})

	ctx := context.Background()
	_, err := p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.NoError(t, err)

	_, err = p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/b"})
	require.ErrorIs(t, err, ErrDuplicateContent)
}

func TestPipelineIngestURLFireAndForgetSwallowsAlreadyIngested(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Content: content}, &fakeEmbedder{dim: 4})

	ctx := context.Background()
	require.NoError(t, p.IngestURL(ctx, "g", "https://example.com/a"))
	require.NoError(t, p.IngestURL(ctx, "g", "https://example.com/a"))
}

func TestPipelineIngestTooShortContentFails(t *testing.T) {
	p := newTestPipeline(t, &Extracted{Content: "short"}, &fakeEmbedder{dim: 4})

	_, err := p.Ingest(context.Background(), &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestPipelineUpdateRejectsEmptyPayload(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Title: "A Title", Content: content}, &fakeEmbedder{dim: 4})

	ctx := context.Background()
	source, err := p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.NoError(t, err)

	_, err = p.Update(ctx, source.ID, "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestPipelineUpdateTitleOnlyLeavesContentUntouched(t *testing.T) {
	content := strings.Repeat("word ", 500)
	p := newTestPipeline(t, &Extracted{Title: "A Title", Content: content}, &fakeEmbedder{dim: 4})

	ctx := context.Background()
	source, err := p.Ingest(ctx, &IngestOptions{GroupFolder: "g", URL: "https://example.com/a"})
	require.NoError(t, err)

	updated, err := p.Update(ctx, source.ID, "New Title", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, source.ContentHash, updated.ContentHash)
}

func TestPipelineSearchWithNoEmbedderReturnsEmpty(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	hits, err := p.Search(context.Background(), "g", "query", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
