package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/transport"
	"github.com/hrygo/chatrouter/internal/transport/bridge"
	"github.com/hrygo/chatrouter/internal/transport/telegram"
)

// newChannel picks the configured chat platform. The bridge channel is
// primary (it health-checks the bridge process before returning, so a
// disconnected session fails fast at startup); Telegram is the optional
// secondary channel for operators who don't run a bridge process.
func newChannel(ctx context.Context, p *profile.Profile, logger *slog.Logger) (transport.Channel, error) {
	switch {
	case p.BridgeBaseURL != "":
		ch, err := bridge.NewChannel(ctx, p.BridgeBaseURL, p.BridgeAPIKey, p.BridgeWebhookAddr, p.BridgeSigningKey, logger)
		if err != nil {
			return nil, errors.Wrap(err, "router: connect bridge channel")
		}
		return ch, nil
	case p.TelegramBotToken != "":
		ch, err := telegram.NewChannel(p.TelegramBotToken)
		if err != nil {
			return nil, errors.Wrap(err, "router: connect telegram channel")
		}
		return ch, nil
	default:
		return nil, errors.New("router: no channel configured (set bridge-base-url or telegram-bot-token)")
	}
}
