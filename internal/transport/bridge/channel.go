package bridge

import (
	"context"
	"log/slog"

	"github.com/hrygo/chatrouter/internal/transport"
)

// Channel implements transport.Channel over a bridge Client + Receiver
// pair: outbound sends go through the REST client, inbound messages
// arrive on the webhook receiver.
type Channel struct {
	client   *Client
	receiver *Receiver
	logger   *slog.Logger
}

// NewChannel builds a bridge Channel. It health-checks the bridge before
// returning so callers fail fast on a disconnected session.
func NewChannel(ctx context.Context, baseURL, apiKey, webhookAddr, signingKey string, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := NewClient(baseURL, apiKey)
	if err := client.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return &Channel{
		client:   client,
		receiver: NewReceiver(webhookAddr, signingKey, logger),
		logger:   logger,
	}, nil
}

func (c *Channel) Name() string { return "bridge" }

func (c *Channel) Subscribe(ctx context.Context, callback func(*transport.IncomingMessage)) error {
	if len(c.receiver.handlers) > 0 {
		return nil
	}
	c.receiver.OnMessage(func(msg webhookMessage) {
		callback(&transport.IncomingMessage{
			ChatJID:    msg.JID,
			SenderName: msg.Sender,
			Content:    msg.Text,
			Timestamp:  msg.Timestamp,
			MessageID:  msg.MessageID,
		})
	})
	go func() {
		if err := c.receiver.Start(ctx); err != nil {
			c.logger.Error("bridge webhook receiver stopped", "error", err)
		}
	}()
	return nil
}

func (c *Channel) Send(ctx context.Context, chatJID, text string) error {
	return c.client.Send(ctx, chatJID, text)
}

func (c *Channel) SetPresence(ctx context.Context, chatJID string, typing bool) error {
	return c.client.SetPresence(ctx, chatJID, typing)
}

func (c *Channel) ListChats(ctx context.Context) ([]transport.ChatMeta, error) {
	chats, err := c.client.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ChatMeta, 0, len(chats))
	for _, ch := range chats {
		out = append(out, transport.ChatMeta{JID: ch.JID, DisplayName: ch.Name, LastMessageTime: ch.LastMessageTime})
	}
	return out, nil
}

func (c *Channel) Close() error { return nil }

var _ transport.Channel = (*Channel)(nil)
