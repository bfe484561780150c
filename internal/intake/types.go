// Package intake implements the message intake loop (C3): it watches the
// store for newly delivered chat messages, decides which ones the
// assistant should answer, builds the agent's context window, and drives
// a reply through the Container Runner.
package intake

import (
	"context"

	"github.com/hrygo/chatrouter/internal/container"
	"github.com/hrygo/chatrouter/store"
)

// KBSearchHit mirrors kb.SearchHit without importing the kb package, to
// keep intake a leaf of the KB pipeline rather than a peer.
type KBSearchHit struct {
	SourceID string
	Title    string
	Content  string
}

// KBSearcher is the subset of the KB pipeline the intake loop needs to
// prepend relevant knowledge to a question. Implemented by kb.Pipeline.
type KBSearcher interface {
	Search(ctx context.Context, groupFolder, query string, limit int) ([]KBSearchHit, error)
}

// KBIngester is the subset of the KB pipeline needed to fire-and-forget
// ingest a URL mentioned in a message. Implemented by kb.Pipeline.
type KBIngester interface {
	IngestURL(ctx context.Context, groupFolder, url string) error
}

// Runner is the subset of the Container Runner the intake loop drives.
type Runner interface {
	Run(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt string) (*container.Response, error)
}

// Sender is the subset of the Transport Adapter the intake loop needs.
type Sender interface {
	Send(ctx context.Context, chatJID, text string) error
	SetPresence(ctx context.Context, chatJID string, typing bool) error
}
