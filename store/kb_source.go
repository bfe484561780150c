package store

import "context"

type SourceType string

const (
	SourceArticle SourceType = "article"
	SourceVideo   SourceType = "video"
	SourcePDF     SourceType = "pdf"
	SourceText    SourceType = "text"
	SourceTweet   SourceType = "tweet"
	SourceOther   SourceType = "other"
)

// KBSource is one ingested document in a group's knowledge base.
type KBSource struct {
	ID          string // kb-<ts>-<rand>
	GroupFolder string
	URL         string // normalized, optional
	Title       string
	SourceType  SourceType
	RawContent  string
	ContentHash string // sha-256 of cleaned content
	Tags        []string
	CreatedAt   int64
	UpdatedAt   int64
}

// CreateKBSource is the write condition for a new source.
type CreateKBSource struct {
	ID          string
	GroupFolder string
	URL         string
	Title       string
	SourceType  SourceType
	RawContent  string
	ContentHash string
	Tags        []string
	CreatedAt   int64
	UpdatedAt   int64
}

// UpdateKBSource replaces title/tags/content/hash in place, preserving CreatedAt.
type UpdateKBSource struct {
	ID          string
	Title       *string
	RawContent  *string
	ContentHash *string
	Tags        []string
	UpdatedAt   int64
}

// FindKBSource is the find condition for KBSource.
type FindKBSource struct {
	ID          *string
	GroupFolder *string
	URL         *string
	ContentHash *string
}

func (s *Store) CreateKBSource(ctx context.Context, create *CreateKBSource) (*KBSource, error) {
	return s.driver.CreateKBSource(ctx, create)
}

func (s *Store) GetKBSource(ctx context.Context, find *FindKBSource) (*KBSource, error) {
	return s.driver.GetKBSource(ctx, find)
}

func (s *Store) ListKBSources(ctx context.Context, find *FindKBSource) ([]*KBSource, error) {
	return s.driver.ListKBSources(ctx, find)
}

func (s *Store) UpdateKBSource(ctx context.Context, update *UpdateKBSource) (*KBSource, error) {
	return s.driver.UpdateKBSource(ctx, update)
}

// DeleteKBSource removes the source and cascades its chunks.
func (s *Store) DeleteKBSource(ctx context.Context, id string) error {
	return s.driver.DeleteKBSource(ctx, id)
}
