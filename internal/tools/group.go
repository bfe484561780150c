package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/ipcbroker"
	"github.com/hrygo/chatrouter/store"
)

// registerGroupPayload is the `register_group` IPC payload: main-only.
type registerGroupPayload struct {
	Type          string             `json:"type"`
	JID           string             `json:"jid"`
	Name          string             `json:"name"`
	Folder        string             `json:"folder"`
	Trigger       string             `json:"trigger"`
	ExtraMounts   []store.ExtraMount `json:"extra_mounts"`
	AdmissionRule string             `json:"admission_rule"`
}

func (d *Dispatcher) handleRegisterGroup(ctx context.Context, raw []byte, isMain bool) error {
	if !isMain {
		return ErrUnauthorized
	}

	var p registerGroupPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.JID == "" || p.Folder == "" || p.Name == "" {
		return errors.Wrap(ErrInvalidPayload, "jid, name and folder required")
	}

	if _, err := d.store.RegisterGroup(ctx, &store.CreateGroup{
		JID: p.JID, Name: p.Name, Folder: p.Folder, Trigger: p.Trigger,
		AddedAt: time.Now().UnixMilli(), ExtraMounts: p.ExtraMounts, AdmissionRule: p.AdmissionRule,
	}); err != nil {
		return errors.Wrap(err, "tools: register group")
	}

	d.writeAllSnapshots(ctx)
	return nil
}

func (d *Dispatcher) handleRefreshGroups(ctx context.Context, isMain bool) error {
	if !isMain {
		return ErrUnauthorized
	}
	if d.groupSyncer == nil {
		return errors.New("tools: no group syncer configured")
	}
	if err := d.groupSyncer.SyncChatMetadata(ctx); err != nil {
		return errors.Wrap(err, "tools: refresh groups")
	}
	d.writeAllSnapshots(ctx)
	return nil
}

// writeAllSnapshots rewrites available_groups.json and current_tasks.json
// for every registered group's own IPC directory. Each group's sandbox
// mounts only its own ipc/<folder>, so a group never sees another's
// authorization-scoped task list.
func (d *Dispatcher) writeAllSnapshots(ctx context.Context) {
	groups, err := d.store.ListGroups(ctx)
	if err != nil {
		d.logger.Error("tools: list groups for snapshot failed", "err", err)
		return
	}
	chats, err := d.store.ListChats(ctx, nil)
	if err != nil {
		d.logger.Error("tools: list chats for snapshot failed", "err", err)
		return
	}
	tasks, err := d.store.ListTasks(ctx, nil)
	if err != nil {
		d.logger.Error("tools: list tasks for snapshot failed", "err", err)
		return
	}
	lastSync, err := d.store.GetLastGroupSync(ctx)
	if err != nil {
		d.logger.Warn("tools: read last group sync failed", "err", err)
	}

	ipcDir := filepath.Join(d.profile.DataDir, "ipc")
	for _, g := range groups {
		groupDir := filepath.Join(ipcDir, g.Folder)
		if err := ipcbroker.WriteAvailableGroups(filepath.Join(groupDir, "available_groups.json"), chats, groups, lastSync); err != nil {
			d.logger.Warn("tools: write available_groups snapshot failed", "group", g.Folder, "err", err)
		}
		if err := ipcbroker.WriteCurrentTasks(filepath.Join(groupDir, "current_tasks.json"), tasks, g.Folder, g.IsMain()); err != nil {
			d.logger.Warn("tools: write current_tasks snapshot failed", "group", g.Folder, "err", err)
		}
	}
}
