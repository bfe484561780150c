package kb

import "context"

// Embedder turns text into a fixed-dimension vector. A nil/unavailable
// provider is not itself an error at the call site — ingestion falls
// back to storing chunks with null embeddings (step 10), and Search
// returns an empty result with a logged warning.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
