// Package transport wraps the chat client (a WhatsApp-style bridge or a
// Telegram bot) behind one canonical interface, normalizing chat
// identifiers and persisting chat metadata the way the teacher's
// multi-platform chat_apps channel layer does.
package transport

import "context"

// IncomingMessage is one inbound chat event, already parsed from whatever
// wire format the Channel speaks.
type IncomingMessage struct {
	ChatJID    string
	SenderName string
	Content    string
	Timestamp  int64 // unix millis
	MessageID  string
}

// OutgoingMessage is a reply the router sends back to a chat.
type OutgoingMessage struct {
	ChatJID string
	Content string
}

// ChatMeta is a chat's display metadata, used for the transport-level
// metadata sync spec.md §4.2 requires for every observed chat.
type ChatMeta struct {
	JID             string
	DisplayName     string
	LastMessageTime int64
}

// Channel is the contract every chat platform integration satisfies.
// Only one Channel backs live traffic at a time; Telegram and the bridge
// are alternative implementations of the same shape.
type Channel interface {
	// Name identifies the channel for logs/metrics.
	Name() string

	// Subscribe registers the callback invoked for every inbound message.
	// It must be idempotent: calling it twice must not double-deliver.
	Subscribe(ctx context.Context, callback func(*IncomingMessage)) error

	// Send delivers text to a chat.
	Send(ctx context.Context, chatJID, text string) error

	// SetPresence toggles a typing/presence indicator, best-effort.
	SetPresence(ctx context.Context, chatJID string, typing bool) error

	// ListChats returns known chat metadata for the metadata sync pass.
	ListChats(ctx context.Context) ([]ChatMeta, error)

	// Close releases the channel's connections.
	Close() error
}
