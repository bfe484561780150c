package kb

import "github.com/pkg/errors"

// Sentinel errors for the KB ingest/update/search pipeline (§4.4).
var (
	ErrAlreadyIngested       = errors.New("kb: source already ingested")
	ErrDuplicateContent      = errors.New("kb: duplicate content hash")
	ErrExtractionFailed      = errors.New("kb: extraction failed")
	ErrEmbeddingsUnavailable = errors.New("kb: embeddings provider unavailable")
	ErrInvalidPayload        = errors.New("kb: invalid payload")
	ErrSourceNotFound        = errors.New("kb: source not found")
)
