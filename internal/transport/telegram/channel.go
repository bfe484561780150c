// Package telegram implements the secondary Telegram Bot channel, backing
// the same transport.Channel interface as the bridge channel.
package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/transport"
)

// Channel implements transport.Channel over the Telegram Bot API via
// long-polling, the simplest of the bot API's two delivery modes and the
// one that needs no public webhook endpoint.
type Channel struct {
	bot *tgbotapi.BotAPI

	cancel context.CancelFunc
}

// NewChannel builds a Telegram Channel from a bot token.
func NewChannel(botToken string) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "telegram: create bot")
	}
	return &Channel{bot: bot}, nil
}

func (c *Channel) Name() string { return "telegram" }

func (c *Channel) Subscribe(ctx context.Context, callback func(*transport.IncomingMessage)) error {
	if c.cancel != nil {
		// already subscribed; duplicate-start guard per spec §4.2.
		return nil
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := c.bot.GetUpdatesChan(updateCfg)

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go func() {
		for {
			select {
			case <-loopCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || update.Message.From == nil {
					continue
				}
				callback(&transport.IncomingMessage{
					ChatJID:    strconv.FormatInt(update.Message.Chat.ID, 10),
					SenderName: update.Message.From.UserName,
					Content:    update.Message.Text,
					Timestamp:  int64(update.Message.Date) * 1000,
					MessageID:  strconv.Itoa(update.Message.MessageID),
				})
			}
		}
	}()
	return nil
}

func (c *Channel) Send(ctx context.Context, chatJID, text string) error {
	chatID, err := strconv.ParseInt(chatJID, 10, 64)
	if err != nil {
		return errors.Wrap(err, "telegram: invalid chat id")
	}
	_, err = c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return errors.Wrap(err, "telegram: send")
	}
	return nil
}

// SetPresence sends Telegram's "typing" chat action when typing is true,
// ignoring any error; typing=false, or a chatJID that is not a numeric
// chat id, is a no-op.
func (c *Channel) SetPresence(ctx context.Context, chatJID string, typing bool) error {
	if !typing {
		return nil
	}
	chatID, err := strconv.ParseInt(chatJID, 10, 64)
	if err != nil {
		return nil
	}
	_, _ = c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return nil
}

// ListChats is unsupported: the Bot API exposes no chat-listing endpoint,
// only chats the bot has already been messaged from.
func (c *Channel) ListChats(ctx context.Context) ([]transport.ChatMeta, error) {
	return nil, nil
}

func (c *Channel) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.bot.StopReceivingUpdates()
	return nil
}

var _ transport.Channel = (*Channel)(nil)
