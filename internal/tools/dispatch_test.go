package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/internal/kb"
	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

type fakeSender struct {
	sent []struct{ chatJID, text string }
}

func (f *fakeSender) Send(ctx context.Context, chatJID, text string) error {
	f.sent = append(f.sent, struct{ chatJID, text string }{chatJID, text})
	return nil
}

type fakeGroupSyncer struct {
	synced int
	err    error
}

func (f *fakeGroupSyncer) SyncChatMetadata(ctx context.Context) error {
	f.synced++
	return f.err
}

type fakeKB struct {
	sources         map[string]*store.KBSource
	ingestCalls     int
	deleteCalls     int
	updateCalls     int
	lastUpdateTitle string
	noOpErr         error
	searchResult    []kb.SearchHit
}

func newFakeKB() *fakeKB { return &fakeKB{sources: map[string]*store.KBSource{}} }

func (f *fakeKB) Ingest(ctx context.Context, opts *kb.IngestOptions) (*store.KBSource, error) {
	f.ingestCalls++
	src := &store.KBSource{ID: "kb-1", GroupFolder: opts.GroupFolder, Title: "t"}
	f.sources[src.ID] = src
	return src, nil
}

func (f *fakeKB) Update(ctx context.Context, sourceID, title, rawText string, tags []string) (*store.KBSource, error) {
	f.updateCalls++
	f.lastUpdateTitle = title
	if f.noOpErr != nil && title == "" && rawText == "" && tags == nil {
		return nil, f.noOpErr
	}
	return f.sources[sourceID], nil
}

func (f *fakeKB) Delete(ctx context.Context, sourceID string) error {
	f.deleteCalls++
	delete(f.sources, sourceID)
	return nil
}

func (f *fakeKB) SearchChunks(ctx context.Context, opts *kb.SearchOptions) ([]kb.SearchHit, error) {
	return f.searchResult, nil
}

func (f *fakeKB) ListSources(ctx context.Context, groupFolder string) ([]*store.KBSource, error) {
	var out []*store.KBSource
	for _, s := range f.sources {
		if s.GroupFolder == groupFolder {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeKB) GetSource(ctx context.Context, sourceID string) (*store.KBSource, error) {
	s, ok := f.sources[sourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func newTestDispatcher(st *store.Store, sender Sender, syncer GroupSyncer, k KB, cli *ExternalCLI) *Dispatcher {
	p := &profile.Profile{AssistantName: "bhai", SchedulerTimezone: "UTC", DataDir: "/tmp/chatrouter-test"}
	return NewDispatcher(st, sender, syncer, k, cli, p, metrics.New(), nil)
}

func newTestStoreWithGroups(t *testing.T, groups ...*store.CreateGroup) *store.Store {
	t.Helper()
	st := store.New(storetest.NewMemDriver())
	ctx := context.Background()
	for _, g := range groups {
		_, err := st.RegisterGroup(ctx, g)
		require.NoError(t, err)
	}
	return st
}
