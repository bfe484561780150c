package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/internal/kb"
	"github.com/hrygo/chatrouter/store"
)

func TestHandleKBAddIngestsUnderSourceGroup(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_add", []byte(`{"type":"kb_add","text":"hello world"}`), "g", false)
	require.NoError(t, err)
	assert.Equal(t, 1, fk.ingestCalls)
	assert.Equal(t, "g", fk.sources["kb-1"].GroupFolder)
}

func TestHandleKBAddRejectsEmptyPayload(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_add", []byte(`{"type":"kb_add"}`), "g", false)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, 0, fk.ingestCalls)
}

func TestHandleKBSearchRepliesToResolvedChatJID(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	fk.searchResult = []kb.SearchHit{{Title: "doc", Content: "snippet"}}
	sender := &fakeSender{}
	d := newTestDispatcher(st, sender, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_search", []byte(`{"type":"kb_search","query":"doc"}`), "g", false)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jid-1", sender.sent[0].chatJID)
	assert.Contains(t, sender.sent[0].text, "doc")
}

func TestHandleKBListRepliesToResolvedChatJID(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "g", Title: "doc"}
	sender := &fakeSender{}
	d := newTestDispatcher(st, sender, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_list", nil, "g", false)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jid-1", sender.sent[0].chatJID)
	assert.Contains(t, sender.sent[0].text, "doc")
}

func TestHandleKBUpdateChecksOwnershipBeforeMutating(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	fk := newFakeKB()
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "other", Title: "doc"}
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_update", []byte(`{"type":"kb_update","source_id":"kb-1","text":"new"}`), "g", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, fk.updateCalls)
}

func TestHandleKBDeleteChecksOwnershipBeforeMutating(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	fk := newFakeKB()
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "other", Title: "doc"}
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_delete", []byte(`{"type":"kb_delete","source_id":"kb-1"}`), "g", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, fk.deleteCalls)
}

func TestHandleKBUpdateAllowsOwnGroup(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "g", Title: "doc"}
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_update", []byte(`{"type":"kb_update","source_id":"kb-1","text":"new"}`), "g", false)
	require.NoError(t, err)
	assert.Equal(t, 1, fk.updateCalls)
}

func TestHandleKBUpdatePassesTitleThrough(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "g", Title: "doc"}
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_update", []byte(`{"type":"kb_update","source_id":"kb-1","title":"renamed"}`), "g", false)
	require.NoError(t, err)
	assert.Equal(t, 1, fk.updateCalls)
	assert.Equal(t, "renamed", fk.lastUpdateTitle)
}

func TestHandleKBUpdateRejectsNoOpPayload(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	fk := newFakeKB()
	fk.noOpErr = kb.ErrInvalidPayload
	fk.sources["kb-1"] = &store.KBSource{ID: "kb-1", GroupFolder: "g", Title: "doc"}
	d := newTestDispatcher(st, &fakeSender{}, nil, fk, nil)

	err := d.Dispatch(context.Background(), "kb_update", []byte(`{"type":"kb_update","source_id":"kb-1"}`), "g", false)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
