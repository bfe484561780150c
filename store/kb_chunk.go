package store

import "context"

// KBChunk is one sub-window of a KBSource's cleaned content, the unit of
// embedding and retrieval. Embedding is stored as a little-endian packed
// float32 vector; it may be nil when the embeddings provider was
// unavailable at ingest time.
type KBChunk struct {
	ID                string
	SourceID          string
	ChunkIndex        int
	Content           string
	Embedding         []float32
	EmbeddingDim      int
	EmbeddingProvider string
	EmbeddingModel    string
	CreatedAt         int64
}

// CreateKBChunk is the write condition for a chunk.
type CreateKBChunk struct {
	ID                string
	SourceID          string
	ChunkIndex        int
	Content           string
	Embedding         []float32
	EmbeddingProvider string
	EmbeddingModel    string
	CreatedAt         int64
}

// FindKBChunk is the find condition for KBChunk.
type FindKBChunk struct {
	SourceID    *string
	GroupFolder *string // join through source, for search scope
	HasEmbedding *bool
}

func (s *Store) ReplaceKBChunks(ctx context.Context, sourceID string, chunks []*CreateKBChunk) ([]*KBChunk, error) {
	return s.driver.ReplaceKBChunks(ctx, sourceID, chunks)
}

func (s *Store) ListKBChunks(ctx context.Context, find *FindKBChunk) ([]*KBChunk, error) {
	return s.driver.ListKBChunks(ctx, find)
}
