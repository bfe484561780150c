package transport_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/internal/transport"
	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

type fakeChannel struct {
	subscribed int32
	callback   func(*transport.IncomingMessage)
	sent       []string
	chats      []transport.ChatMeta
}

func (f *fakeChannel) Name() string { return "fake" }

func (f *fakeChannel) Subscribe(ctx context.Context, callback func(*transport.IncomingMessage)) error {
	atomic.AddInt32(&f.subscribed, 1)
	f.callback = callback
	return nil
}

func (f *fakeChannel) Send(ctx context.Context, chatJID, text string) error {
	f.sent = append(f.sent, chatJID+":"+text)
	return nil
}

func (f *fakeChannel) SetPresence(ctx context.Context, chatJID string, typing bool) error { return nil }

func (f *fakeChannel) ListChats(ctx context.Context) ([]transport.ChatMeta, error) {
	return f.chats, nil
}

func (f *fakeChannel) Close() error { return nil }

func TestAdapterNormalizesAliasOnInbound(t *testing.T) {
	ch := &fakeChannel{}
	st := store.New(storetest.NewMemDriver())
	adapter := transport.NewAdapter(ch, st, nil)
	adapter.RegisterAlias("alt-jid", "canonical-jid")

	var received *transport.IncomingMessage
	require.NoError(t, adapter.Start(context.Background(), func(m *transport.IncomingMessage) {
		received = m
	}))

	ch.callback(&transport.IncomingMessage{ChatJID: "alt-jid", SenderName: "alice", Content: "hi", Timestamp: 1})

	require.NotNil(t, received)
	assert.Equal(t, "canonical-jid", received.ChatJID)

	chat, err := st.GetChat(context.Background(), "canonical-jid")
	require.NoError(t, err)
	assert.Equal(t, "alice", chat.DisplayName)
}

func TestAdapterStartIsIdempotent(t *testing.T) {
	ch := &fakeChannel{}
	st := store.New(storetest.NewMemDriver())
	adapter := transport.NewAdapter(ch, st, nil)

	require.NoError(t, adapter.Start(context.Background(), func(*transport.IncomingMessage) {}))
	require.NoError(t, adapter.Start(context.Background(), func(*transport.IncomingMessage) {}))

	assert.EqualValues(t, 1, ch.subscribed)
}

func TestAdapterSyncChatMetadata(t *testing.T) {
	ch := &fakeChannel{chats: []transport.ChatMeta{
		{JID: "a", DisplayName: "Alice", LastMessageTime: 10},
		{JID: "b", DisplayName: "Bob", LastMessageTime: 20},
	}}
	st := store.New(storetest.NewMemDriver())
	adapter := transport.NewAdapter(ch, st, nil)

	require.NoError(t, adapter.SyncChatMetadata(context.Background()))

	chats, err := st.ListChats(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, chats, 2)

	lastSync, err := st.LastGroupSync(context.Background())
	require.NoError(t, err)
	assert.Greater(t, lastSync, int64(0))
}
