package kb

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/intake"
	"github.com/hrygo/chatrouter/store"
)

// Pipeline implements the full ingest/update/delete/search lifecycle of
// §4.4 and satisfies intake.KBSearcher / intake.KBIngester so the intake
// loop can drive it without importing this package's concrete types.
type Pipeline struct {
	store    *store.Store
	embedder Embedder // nil means no embeddings provider configured
	extract  Extractor
	lock     *groupLock
	feedDir  string
	logger   *slog.Logger
}

var (
	_ intake.KBSearcher = (*Pipeline)(nil)
	_ intake.KBIngester = (*Pipeline)(nil)
)

// NewPipeline constructs a Pipeline. embedder may be nil.
func NewPipeline(st *store.Store, embedder Embedder, extractor Extractor, lockDir, feedDir string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    st,
		embedder: embedder,
		extract:  extractor,
		lock:     newGroupLock(lockDir),
		feedDir:  feedDir,
		logger:   logger,
	}
}

// IngestOptions carries the caller-supplied ingest parameters: either a
// URL (fetched and type-detected) or raw text with an explicit type.
type IngestOptions struct {
	GroupFolder        string
	URL                string
	RawText            string
	SourceTypeOverride string
	Tags               []string
	MaxContentBytes    int64
}

// IngestURL is the intake.KBIngester entry point: fire-and-forget
// ingestion of a URL mentioned in a chat message.
func (p *Pipeline) IngestURL(ctx context.Context, groupFolder, url string) error {
	_, err := p.Ingest(ctx, &IngestOptions{GroupFolder: groupFolder, URL: url})
	if errors.Is(err, ErrAlreadyIngested) || errors.Is(err, ErrDuplicateContent) {
		return nil // not a real failure — the URL is already known
	}
	return err
}

// Ingest runs steps 1-11 of §4.4, aborting on the first failing step.
func (p *Pipeline) Ingest(ctx context.Context, opts *IngestOptions) (*store.KBSource, error) {
	if opts.GroupFolder == "" {
		return nil, errors.Wrap(ErrInvalidPayload, "group_folder required")
	}
	if opts.URL == "" && opts.RawText == "" {
		return nil, errors.Wrap(ErrInvalidPayload, "either url or raw text required")
	}

	release, err := p.lock.Acquire(ctx, opts.GroupFolder)
	if err != nil {
		return nil, errors.Wrap(err, "kb: acquire ingest lock")
	}
	defer release()

	var normalizedURL string
	if opts.URL != "" {
		normalizedURL, err = NormalizeURL(opts.URL)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidPayload, err.Error())
		}

		existing, err := p.store.GetKBSource(ctx, &store.FindKBSource{GroupFolder: &opts.GroupFolder, URL: &normalizedURL})
		if err == nil && existing != nil {
			return nil, ErrAlreadyIngested
		}
	}

	sourceType := opts.SourceTypeOverride
	if sourceType == "" {
		if normalizedURL != "" {
			sourceType = DetectSourceType(normalizedURL)
		} else {
			sourceType = string(store.SourceText)
		}
	}

	extractInput := normalizedURL
	if extractInput == "" {
		extractInput = opts.RawText
	}
	extracted, err := p.extract.Extract(ctx, sourceType, extractInput)
	if err != nil {
		return nil, err
	}
	if extracted == nil {
		return nil, ErrExtractionFailed
	}

	cleaned := Clean(extracted.Content)
	if len(cleaned) < MinLengthFor(sourceType) {
		return nil, errors.Wrapf(ErrExtractionFailed, "cleaned content too short (%d bytes)", len(cleaned))
	}

	maxBytes := opts.MaxContentBytes
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	cleaned, _ = Truncate(cleaned, maxBytes)

	hash := ContentHash(cleaned)
	dup, err := p.store.GetKBSource(ctx, &store.FindKBSource{GroupFolder: &opts.GroupFolder, ContentHash: &hash})
	if err == nil && dup != nil {
		return nil, ErrDuplicateContent
	}

	now := time.Now().UnixMilli()
	source, err := p.store.CreateKBSource(ctx, &store.CreateKBSource{
		ID:          "kb-" + strconv.FormatInt(now, 10) + "-" + shortuuid.New(),
		GroupFolder: opts.GroupFolder,
		URL:         normalizedURL,
		Title:       extracted.Title,
		SourceType:  store.SourceType(sourceType),
		RawContent:  cleaned,
		ContentHash: hash,
		Tags:        opts.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "kb: create source")
	}

	if err := p.chunkAndEmbed(ctx, source); err != nil {
		return nil, err
	}

	p.refreshFeed(ctx, opts.GroupFolder)
	return source, nil
}

// Update re-ingests content for an existing source, preserving CreatedAt.
// If no new raw text is given, only Title/Tags are updated in place and
// chunks are left untouched — the open question the spec leaves
// unresolved (see DESIGN.md). Callers must supply at least one of
// title, rawText, or tags; a no-op call is rejected as an invalid
// payload rather than silently succeeding.
func (p *Pipeline) Update(ctx context.Context, sourceID string, title string, rawText string, tags []string) (*store.KBSource, error) {
	if title == "" && rawText == "" && tags == nil {
		return nil, errors.Wrap(ErrInvalidPayload, "at least one of title, text, or tags required")
	}

	existing, err := p.store.GetKBSource(ctx, &store.FindKBSource{ID: &sourceID})
	if err != nil {
		return nil, errors.Wrap(ErrSourceNotFound, err.Error())
	}

	release, err := p.lock.Acquire(ctx, existing.GroupFolder)
	if err != nil {
		return nil, errors.Wrap(err, "kb: acquire ingest lock")
	}
	defer release()

	if rawText == "" {
		update := &store.UpdateKBSource{ID: sourceID, Tags: tags, UpdatedAt: time.Now().UnixMilli()}
		if title != "" {
			update.Title = &title
		}
		updated, err := p.store.UpdateKBSource(ctx, update)
		if err != nil {
			return nil, errors.Wrap(err, "kb: update source metadata")
		}
		return updated, nil
	}

	cleaned := Clean(rawText)
	if len(cleaned) < MinLengthFor(string(existing.SourceType)) {
		return nil, errors.Wrapf(ErrExtractionFailed, "cleaned content too short (%d bytes)", len(cleaned))
	}
	hash := ContentHash(cleaned)

	update := &store.UpdateKBSource{
		ID: sourceID, RawContent: &cleaned, ContentHash: &hash, Tags: tags, UpdatedAt: time.Now().UnixMilli(),
	}
	if title != "" {
		update.Title = &title
	}
	updated, err := p.store.UpdateKBSource(ctx, update)
	if err != nil {
		return nil, errors.Wrap(err, "kb: update source content")
	}

	if err := p.chunkAndEmbed(ctx, updated); err != nil {
		return nil, err
	}
	p.refreshFeed(ctx, updated.GroupFolder)
	return updated, nil
}

// Delete removes a source and cascades its chunks.
func (p *Pipeline) Delete(ctx context.Context, sourceID string) error {
	return p.store.DeleteKBSource(ctx, sourceID)
}

// ListSources returns every source ingested for a group, for kb_list.
func (p *Pipeline) ListSources(ctx context.Context, groupFolder string) ([]*store.KBSource, error) {
	return p.store.ListKBSources(ctx, &store.FindKBSource{GroupFolder: &groupFolder})
}

// GetSource looks up a single source by id, for authorization checks
// ahead of update/delete.
func (p *Pipeline) GetSource(ctx context.Context, sourceID string) (*store.KBSource, error) {
	return p.store.GetKBSource(ctx, &store.FindKBSource{ID: &sourceID})
}

func (p *Pipeline) chunkAndEmbed(ctx context.Context, source *store.KBSource) error {
	pieces := Chunk(source.RawContent)
	if len(pieces) == 0 {
		return errors.Wrap(ErrExtractionFailed, "no chunks produced")
	}

	var embeddings [][]float32
	if p.embedder != nil {
		var err error
		embeddings, err = p.embedder.EmbedBatch(ctx, pieces)
		if err != nil {
			p.logger.Warn("kb: embeddings provider unavailable, storing chunks without vectors", "source_id", source.ID, "err", err)
			embeddings = nil
		}
	}

	now := time.Now().UnixMilli()
	creates := make([]*store.CreateKBChunk, len(pieces))
	for i, text := range pieces {
		var vec []float32
		if i < len(embeddings) {
			vec = embeddings[i]
		}
		creates[i] = &store.CreateKBChunk{
			ID:         "chunk-" + shortuuid.New(),
			SourceID:   source.ID,
			ChunkIndex: i,
			Content:    text,
			Embedding:  vec,
			CreatedAt:  now,
		}
	}

	if _, err := p.store.ReplaceKBChunks(ctx, source.ID, creates); err != nil {
		return errors.Wrap(err, "kb: replace chunks")
	}
	return nil
}

func (p *Pipeline) refreshFeed(ctx context.Context, groupFolder string) {
	if p.feedDir == "" {
		return
	}
	sources, err := p.store.ListKBSources(ctx, &store.FindKBSource{GroupFolder: &groupFolder})
	if err != nil {
		p.logger.Warn("kb: list sources for feed refresh failed", "group", groupFolder, "err", err)
		return
	}
	if err := WriteFeed(p.feedDir, groupFolder, sources); err != nil {
		p.logger.Warn("kb: feed refresh failed", "group", groupFolder, "err", err)
	}
}
