package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// messagePayload is the `message` IPC payload: send text to chatJid via
// Transport. The target chat must belong to sourceGroup, unless isMain.
type messagePayload struct {
	Type    string `json:"type"`
	ChatJID string `json:"chat_jid"`
	Text    string `json:"text"`
}

func (d *Dispatcher) handleMessage(ctx context.Context, raw []byte, sourceGroup string, isMain bool) error {
	var p messagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.ChatJID == "" || p.Text == "" {
		return errors.Wrap(ErrInvalidPayload, "chat_jid and text required")
	}

	if !isMain {
		folder := sourceGroup
		group, err := d.store.GetGroup(ctx, &store.FindGroup{Folder: &folder})
		if err != nil || group == nil || group.JID != p.ChatJID {
			return ErrUnauthorized
		}
	}

	return d.sender.Send(ctx, p.ChatJID, p.Text)
}
