package kb

import (
	"context"
	"sort"

	"github.com/hrygo/chatrouter/internal/intake"
	"github.com/hrygo/chatrouter/store"
)

const defaultMinSimilarity = 0.7

// SearchOptions mirrors §4.4's search input.
type SearchOptions struct {
	Query          string
	GroupFolder    string // empty means search across all groups
	Limit          int
	MinSimilarity  float32
	DedupeBySource bool
}

// SearchHit is one scored chunk result.
type SearchHit struct {
	ChunkID    string
	SourceID   string
	URL        string
	Title      string
	SourceType store.SourceType
	Content    string
	Similarity float32
}

// SearchChunks implements §4.4's semantic search: embed the query, score
// every in-scope chunk with a stored embedding by cosine similarity, keep
// >= MinSimilarity, sort desc, optionally keep one chunk per source, and
// truncate to Limit. A missing embeddings provider yields an empty
// result and a logged warning rather than an error.
func (p *Pipeline) SearchChunks(ctx context.Context, opts *SearchOptions) ([]SearchHit, error) {
	if p.embedder == nil {
		p.logger.Warn("kb: search attempted with no embeddings provider configured")
		return nil, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, []string{opts.Query})
	if err != nil {
		p.logger.Warn("kb: embed query failed, returning empty result", "err", err)
		return nil, nil
	}
	queryVec := vectors[0]

	hasEmbedding := true
	var groupFolder *string
	if opts.GroupFolder != "" {
		groupFolder = &opts.GroupFolder
	}
	chunks, err := p.store.ListKBChunks(ctx, &store.FindKBChunk{GroupFolder: groupFolder, HasEmbedding: &hasEmbedding})
	if err != nil {
		return nil, err
	}

	minSim := opts.MinSimilarity
	if minSim <= 0 {
		minSim = defaultMinSimilarity
	}

	sourceCache := make(map[string]*store.KBSource)
	var hits []SearchHit
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		sim := CosineSimilarity(queryVec, c.Embedding)
		if sim < minSim {
			continue
		}
		source, ok := sourceCache[c.SourceID]
		if !ok {
			source, err = p.store.GetKBSource(ctx, &store.FindKBSource{ID: &c.SourceID})
			if err != nil {
				continue
			}
			sourceCache[c.SourceID] = source
		}
		hits = append(hits, SearchHit{
			ChunkID:    c.ID,
			SourceID:   c.SourceID,
			URL:        source.URL,
			Title:      source.Title,
			SourceType: source.SourceType,
			Content:    c.Content,
			Similarity: sim,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })

	if opts.DedupeBySource {
		hits = dedupeBestPerSource(hits)
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

func dedupeBestPerSource(hits []SearchHit) []SearchHit {
	seen := make(map[string]bool, len(hits))
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		if seen[h.SourceID] {
			continue
		}
		seen[h.SourceID] = true
		out = append(out, h)
	}
	return out
}

// Search satisfies intake.KBSearcher: translates the package-specific
// SearchHit into intake's narrow KBSearchHit so the intake loop need not
// import kb.
func (p *Pipeline) Search(ctx context.Context, groupFolder, query string, limit int) ([]intake.KBSearchHit, error) {
	hits, err := p.SearchChunks(ctx, &SearchOptions{Query: query, GroupFolder: groupFolder, Limit: limit, DedupeBySource: true})
	if err != nil {
		return nil, err
	}
	out := make([]intake.KBSearchHit, len(hits))
	for i, h := range hits {
		out[i] = intake.KBSearchHit{SourceID: h.SourceID, Title: h.Title, Content: h.Content}
	}
	return out, nil
}
