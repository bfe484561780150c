package store

import "context"

// Driver is the storage backend contract. Store is a thin facade over a
// Driver; sqlite is the primary embedded implementation, postgres an
// optional server-backed one (same contract, pgvector-assisted KB storage).
type Driver interface {
	Close() error

	UpsertChat(ctx context.Context, upsert *UpsertChat) (*Chat, error)
	ListChats(ctx context.Context, find *FindChat) ([]*Chat, error)
	GetChat(ctx context.Context, jid string) (*Chat, error)

	StoreMessage(ctx context.Context, create *CreateMessage) (*Message, error)
	GetNewMessages(ctx context.Context, registeredJIDs []string, sinceTS int64, botPrefixes []string) ([]*Message, error)
	GetMessagesSince(ctx context.Context, jid string, sinceTS int64, botPrefixes []string) ([]*Message, error)

	RegisterGroup(ctx context.Context, create *CreateGroup) (*RegisteredGroup, error)
	ListGroups(ctx context.Context) ([]*RegisteredGroup, error)
	GetGroup(ctx context.Context, find *FindGroup) (*RegisteredGroup, error)

	GetSession(ctx context.Context, groupFolder string) (*Session, error)
	SetSession(ctx context.Context, groupFolder, sessionID string, updatedAt int64) (*Session, error)

	CreateTask(ctx context.Context, create *CreateTask) (*Task, error)
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error)
	DeleteTask(ctx context.Context, id string) error

	CreateKBSource(ctx context.Context, create *CreateKBSource) (*KBSource, error)
	GetKBSource(ctx context.Context, find *FindKBSource) (*KBSource, error)
	ListKBSources(ctx context.Context, find *FindKBSource) ([]*KBSource, error)
	UpdateKBSource(ctx context.Context, update *UpdateKBSource) (*KBSource, error)
	DeleteKBSource(ctx context.Context, id string) error

	ReplaceKBChunks(ctx context.Context, sourceID string, chunks []*CreateKBChunk) ([]*KBChunk, error)
	ListKBChunks(ctx context.Context, find *FindKBChunk) ([]*KBChunk, error)

	GetLastGroupSync(ctx context.Context) (int64, error)
	SetLastGroupSync(ctx context.Context, ts int64) error
}
