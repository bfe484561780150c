package kb

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func TestSearchChunksFiltersByMinSimilarity(t *testing.T) {
	st := store.New(storetest.NewMemDriver())
	ctx := context.Background()

	now := int64(1000)
	src, err := st.CreateKBSource(ctx, &store.CreateKBSource{
		ID: "kb-1", GroupFolder: "g", Title: "Doc", SourceType: store.SourceArticle,
		RawContent: "content", ContentHash: "hash1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = st.ReplaceKBChunks(ctx, src.ID, []*store.CreateKBChunk{
		{ID: "c-close", SourceID: src.ID, ChunkIndex: 0, Content: "close match", Embedding: []float32{1, 0}, CreatedAt: now},
		{ID: "c-far", SourceID: src.ID, ChunkIndex: 1, Content: "far match", Embedding: []float32{0, 1}, CreatedAt: now},
	})
	require.NoError(t, err)

	p := NewPipeline(st, &fixedEmbedder{vec: []float32{1, 0}}, nil, t.TempDir(), t.TempDir(), slog.Default())

	hits, err := p.SearchChunks(ctx, &SearchOptions{Query: "q", MinSimilarity: 0.5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c-close", hits[0].ChunkID)
}

func TestSearchChunksDedupeBySource(t *testing.T) {
	st := store.New(storetest.NewMemDriver())
	ctx := context.Background()
	now := int64(1000)

	src, err := st.CreateKBSource(ctx, &store.CreateKBSource{
		ID: "kb-1", GroupFolder: "g", Title: "Doc", SourceType: store.SourceArticle,
		RawContent: "content", ContentHash: "hash1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = st.ReplaceKBChunks(ctx, src.ID, []*store.CreateKBChunk{
		{ID: "c-1", SourceID: src.ID, ChunkIndex: 0, Content: "a", Embedding: []float32{1, 0}, CreatedAt: now},
		{ID: "c-2", SourceID: src.ID, ChunkIndex: 1, Content: "b", Embedding: []float32{1, 0}, CreatedAt: now},
	})
	require.NoError(t, err)

	p := NewPipeline(st, &fixedEmbedder{vec: []float32{1, 0}}, nil, t.TempDir(), t.TempDir(), slog.Default())

	hits, err := p.SearchChunks(ctx, &SearchOptions{Query: "q", MinSimilarity: 0.5, Limit: 10, DedupeBySource: true})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
