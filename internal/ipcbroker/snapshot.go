package ipcbroker

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// GroupSnapshotEntry is one row of available_groups.json.
type GroupSnapshotEntry struct {
	JID          string `json:"jid"`
	Name         string `json:"name"`
	LastActivity int64  `json:"lastActivity"`
	IsRegistered bool   `json:"isRegistered"`
}

// AvailableGroupsSnapshot is the full contents of available_groups.json.
type AvailableGroupsSnapshot struct {
	Groups   []GroupSnapshotEntry `json:"groups"`
	LastSync int64                `json:"lastSync"`
}

// WriteAvailableGroups renders every known chat, annotated with whether
// it is a registered group, to path (atomically via tmp→rename).
func WriteAvailableGroups(path string, chats []*store.Chat, groups []*store.RegisteredGroup, lastSync int64) error {
	registered := make(map[string]string, len(groups)) // jid -> name
	for _, g := range groups {
		registered[g.JID] = g.Name
	}

	snapshot := AvailableGroupsSnapshot{LastSync: lastSync}
	for _, c := range chats {
		name, isRegistered := registered[c.JID]
		if !isRegistered {
			name = c.DisplayName
		}
		snapshot.Groups = append(snapshot.Groups, GroupSnapshotEntry{
			JID:          c.JID,
			Name:         name,
			LastActivity: c.LastMessageTime,
			IsRegistered: isRegistered,
		})
	}

	return writeJSONAtomic(path, snapshot)
}

// WriteCurrentTasks renders tasks visible to sourceGroup (all of them if
// isMain, else only its own) to path.
func WriteCurrentTasks(path string, tasks []*store.Task, sourceGroup string, isMain bool) error {
	visible := make([]*store.Task, 0, len(tasks))
	for _, t := range tasks {
		if isMain || t.GroupFolder == sourceGroup {
			visible = append(visible, t)
		}
	}
	return writeJSONAtomic(path, visible)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "ipcbroker: marshal snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "ipcbroker: create snapshot dir")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "ipcbroker: write snapshot tmp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "ipcbroker: rename snapshot into place")
	}
	return nil
}
