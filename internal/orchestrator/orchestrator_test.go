package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/transport"
	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

type stubChannel struct {
	subscribed int
	callback   func(*transport.IncomingMessage)
}

func (c *stubChannel) Name() string { return "stub" }
func (c *stubChannel) Subscribe(ctx context.Context, callback func(*transport.IncomingMessage)) error {
	c.subscribed++
	c.callback = callback
	return nil
}
func (c *stubChannel) Send(ctx context.Context, chatJID, text string) error { return nil }
func (c *stubChannel) SetPresence(ctx context.Context, chatJID string, typing bool) error {
	return nil
}
func (c *stubChannel) ListChats(ctx context.Context) ([]transport.ChatMeta, error) { return nil, nil }
func (c *stubChannel) Close() error                                                { return nil }

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{
		DataDir:            dir,
		GroupsDir:          dir,
		AssistantName:      "bhai",
		MountAllowlistPath: dir + "/allowlist.json",
		AdminAddr:          "127.0.0.1:0",
	}
	require.NoError(t, p.Validate())
	return p
}

func TestNewWiresEveryStubsystem(t *testing.T) {
	st := store.New(storetest.NewMemDriver())
	channel := &stubChannel{}

	o, err := New(context.Background(), testProfile(t), st, channel, nil)
	require.NoError(t, err)
	assert.NotNil(t, o.intake)
	assert.NotNil(t, o.sched)
	assert.NotNil(t, o.broker)
	assert.NotNil(t, o.tools)
	assert.NotNil(t, o.Metrics())
}

func TestStartSubscribesTransportAndPersistsIncoming(t *testing.T) {
	st := store.New(storetest.NewMemDriver())
	channel := &stubChannel{}

	o, err := New(context.Background(), testProfile(t), st, channel, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = o.Start(ctx)
	}()

	require.Eventually(t, func() bool { return channel.callback != nil }, time.Second, 10*time.Millisecond)
	channel.callback(&transport.IncomingMessage{
		ChatJID: "jid-1", SenderName: "alice", Content: "hi", Timestamp: 1, MessageID: "m1",
	})

	require.Eventually(t, func() bool {
		msgs, err := st.GetNewMessages(context.Background(), []string{"jid-1"}, 0, nil)
		return err == nil && len(msgs) == 1
	}, time.Second, 10*time.Millisecond)
}
