package kb

import "context"

// Extracted is what an extractor returns for a successfully fetched
// source: a title (may be empty) and raw content to clean/chunk.
type Extracted struct {
	Title   string
	Content string
}

// Extractor turns a normalized URL (or, for text sources, the raw text
// itself passed as url) into title/content (step 5). A nil, nil return
// means extraction produced nothing usable and the caller should surface
// ErrExtractionFailed.
type Extractor interface {
	Extract(ctx context.Context, sourceType, url string) (*Extracted, error)
}

// dispatcher routes to one Extractor per source type. It itself
// implements Extractor so callers (the Pipeline) depend on one interface.
type dispatcher struct {
	article Extractor
	video   Extractor
	pdf     Extractor
	text    Extractor
}

// NewExtractor wires the concrete extractors into a single dispatching
// Extractor: HTTP fetch for articles, an external transcript CLI for
// video, a PDF text extractor for pdf, and passthrough for text.
func NewExtractor(videoCLIPath string) Extractor {
	return &dispatcher{
		article: newArticleExtractor(),
		video:   newVideoExtractor(videoCLIPath),
		pdf:     newPDFExtractor(),
		text:    textExtractor{},
	}
}

func (d *dispatcher) Extract(ctx context.Context, sourceType, url string) (*Extracted, error) {
	switch sourceType {
	case "video":
		return d.video.Extract(ctx, sourceType, url)
	case "pdf":
		return d.pdf.Extract(ctx, sourceType, url)
	case "text":
		return d.text.Extract(ctx, sourceType, url)
	default:
		return d.article.Extract(ctx, sourceType, url)
	}
}

type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, _, raw string) (*Extracted, error) {
	return &Extracted{Content: raw}, nil
}
