package kb

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// embedRateLimit caps how often this process calls out to the embeddings
// provider, independent of how many groups are ingesting concurrently.
const embedRateLimit = 3 // requests per second

// openaiEmbedder is the concrete Embedder: any
// OpenAI-compatible embeddings endpoint (OpenAI itself, or a
// self-hosted/alternate provider behind the same wire format), the same
// client shape as the teacher's ai.EmbeddingService.
type openaiEmbedder struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAIEmbedder builds an Embedder against baseURL (empty means the
// OpenAI default) using apiKey and model.
func NewOpenAIEmbedder(baseURL, apiKey, model string) Embedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openaiEmbedder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(embedRateLimit), embedRateLimit),
	}
}

func (e *openaiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("kb: no texts provided for embedding")
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "kb: rate limit wait")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, errors.Wrap(ErrEmbeddingsUnavailable, err.Error())
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Wrap(ErrEmbeddingsUnavailable, "embeddings response size mismatch")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
