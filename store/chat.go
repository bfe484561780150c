package store

import "context"

// Chat mirrors a transport-level conversation. It is created lazily on the
// first observed message and kept up to date by metadata sync.
type Chat struct {
	JID             string
	DisplayName     string
	LastMessageTime int64 // unix millis
}

// UpsertChat is the write condition for Chat metadata sync.
type UpsertChat struct {
	JID             string
	DisplayName     string
	LastMessageTime int64
}

// FindChat is the find condition for Chat.
type FindChat struct {
	JID *string
}

func (s *Store) UpsertChat(ctx context.Context, upsert *UpsertChat) (*Chat, error) {
	return s.driver.UpsertChat(ctx, upsert)
}

func (s *Store) ListChats(ctx context.Context, find *FindChat) ([]*Chat, error) {
	return s.driver.ListChats(ctx, find)
}

func (s *Store) GetChat(ctx context.Context, jid string) (*Chat, error) {
	return s.driver.GetChat(ctx, jid)
}
