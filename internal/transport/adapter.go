package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/chatrouter/store"
)

// sendRateLimit caps outbound sends per second, shared across every chat
// this process replies in, so a burst of due tasks or trigger matches
// can't trip the bridge's own rate limiting.
const sendRateLimit = 5

// Adapter normalizes alternate identity forms to a canonical jid (some
// transports present the same chat under two identifiers, e.g. a
// self-chat), persists chat metadata for every observed chat, and starts
// the subscription loop exactly once.
type Adapter struct {
	channel Channel
	store   *store.Store
	logger  *slog.Logger
	limiter *rate.Limiter

	aliasMu sync.RWMutex
	aliases map[string]string // alternate id -> canonical jid

	startOnce sync.Once
}

// NewAdapter wraps a Channel in normalization/persistence/duplicate-start
// guards.
func NewAdapter(channel Channel, st *store.Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		channel: channel,
		store:   st,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(sendRateLimit), sendRateLimit),
		aliases: make(map[string]string),
	}
}

// RegisterAlias records that altJID is an alternate identifier for jid;
// subsequent inbound messages bearing altJID are rewritten to jid.
func (a *Adapter) RegisterAlias(altJID, jid string) {
	a.aliasMu.Lock()
	defer a.aliasMu.Unlock()
	a.aliases[altJID] = jid
}

func (a *Adapter) canonicalJID(jid string) string {
	a.aliasMu.RLock()
	defer a.aliasMu.RUnlock()
	if canon, ok := a.aliases[jid]; ok {
		return canon
	}
	return jid
}

// Start subscribes to inbound messages and invokes onMessage for each,
// after canonicalizing the chat jid and upserting chat metadata. A second
// call to Start is a no-op: the adapter must not re-arm the intake loop
// twice across a transport reconnect.
func (a *Adapter) Start(ctx context.Context, onMessage func(*IncomingMessage)) error {
	var startErr error
	a.startOnce.Do(func() {
		startErr = a.channel.Subscribe(ctx, func(msg *IncomingMessage) {
			msg.ChatJID = a.canonicalJID(msg.ChatJID)

			if _, err := a.store.UpsertChat(ctx, &store.UpsertChat{
				JID:             msg.ChatJID,
				DisplayName:     msg.SenderName,
				LastMessageTime: msg.Timestamp,
			}); err != nil {
				a.logger.Warn("chat metadata upsert failed", "jid", msg.ChatJID, "error", err)
			}

			onMessage(msg)
		})
	})
	if startErr != nil {
		return errors.Wrap(startErr, "transport: subscribe")
	}
	return nil
}

// Send forwards a reply to the chat, throttled to sendRateLimit/s.
func (a *Adapter) Send(ctx context.Context, chatJID, text string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "transport: rate limit wait")
	}
	return a.channel.Send(ctx, a.canonicalJID(chatJID), text)
}

// SetPresence forwards a typing indicator.
func (a *Adapter) SetPresence(ctx context.Context, chatJID string, typing bool) error {
	return a.channel.SetPresence(ctx, a.canonicalJID(chatJID), typing)
}

// SyncChatMetadata lists every chat the channel knows about and upserts
// it, then advances the store's last-group-sync marker. Unregistered
// chats remain discoverable by metadata only; their message bodies are
// never persisted here.
func (a *Adapter) SyncChatMetadata(ctx context.Context) error {
	chats, err := a.channel.ListChats(ctx)
	if err != nil {
		return errors.Wrap(err, "transport: list chats")
	}
	for _, c := range chats {
		if _, err := a.store.UpsertChat(ctx, &store.UpsertChat{
			JID:             a.canonicalJID(c.JID),
			DisplayName:     c.DisplayName,
			LastMessageTime: c.LastMessageTime,
		}); err != nil {
			a.logger.Warn("chat metadata sync failed", "jid", c.JID, "error", err)
		}
	}
	return a.store.SetLastGroupSync(ctx, time.Now().UnixMilli())
}

// Close releases the underlying channel.
func (a *Adapter) Close() error {
	return a.channel.Close()
}
