package ipcbroker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
)

func TestWriteAvailableGroupsMarksRegistration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "available_groups.json")

	chats := []*store.Chat{
		{JID: "jid-1", DisplayName: "Chat One", LastMessageTime: 100},
		{JID: "jid-2", DisplayName: "Chat Two", LastMessageTime: 200},
	}
	groups := []*store.RegisteredGroup{{JID: "jid-1", Name: "Registered One"}}

	require.NoError(t, WriteAvailableGroups(path, chats, groups, 9999))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap AvailableGroupsSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.EqualValues(t, 9999, snap.LastSync)
	require.Len(t, snap.Groups, 2)

	byJID := map[string]GroupSnapshotEntry{}
	for _, g := range snap.Groups {
		byJID[g.JID] = g
	}
	assert.True(t, byJID["jid-1"].IsRegistered)
	assert.Equal(t, "Registered One", byJID["jid-1"].Name)
	assert.False(t, byJID["jid-2"].IsRegistered)
}

func TestWriteCurrentTasksScopesByAuthorization(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "current_tasks.json")

	tasks := []*store.Task{
		{ID: "t1", GroupFolder: "g1"},
		{ID: "t2", GroupFolder: "g2"},
	}

	require.NoError(t, WriteCurrentTasks(path, tasks, "g1", false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var visible []*store.Task
	require.NoError(t, json.Unmarshal(data, &visible))
	require.Len(t, visible, 1)
	assert.Equal(t, "t1", visible[0].ID)

	require.NoError(t, WriteCurrentTasks(path, tasks, "g1", true))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &visible))
	assert.Len(t, visible, 2)
}
