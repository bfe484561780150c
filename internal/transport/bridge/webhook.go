package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrInvalidSignature is returned when a webhook's bearer JWT fails
// verification against the shared signing key.
var ErrInvalidSignature = errors.New("bridge: invalid webhook signature")

type webhookMessage struct {
	JID       string `json:"jid"`
	SenderJID string `json:"senderJid"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	MessageID string `json:"messageId"`
}

// Receiver runs the echo HTTP server the bridge posts inbound messages
// to, verifying each request's bearer JWT before dispatch.
type Receiver struct {
	addr       string
	signingKey string
	logger     *slog.Logger

	echo     *echo.Echo
	handlers []func(webhookMessage)
}

// NewReceiver builds a webhook Receiver bound to addr.
func NewReceiver(addr, signingKey string, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	r := &Receiver{addr: addr, signingKey: signingKey, logger: logger, echo: e}
	e.POST("/webhook/message", r.handleMessage)
	return r
}

// OnMessage registers a callback for every verified inbound message.
func (r *Receiver) OnMessage(fn func(webhookMessage)) {
	r.handlers = append(r.handlers, fn)
}

// Start runs the HTTP server until ctx is canceled.
func (r *Receiver) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.echo.Start(r.addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (r *Receiver) handleMessage(c echo.Context) error {
	token := c.Request().Header.Get("Authorization")
	if err := r.verify(token); err != nil {
		r.logger.Warn("webhook: rejected request", "error", err)
		return c.NoContent(http.StatusUnauthorized)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	var msg webhookMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	for _, fn := range r.handlers {
		fn(msg)
	}
	return c.NoContent(http.StatusOK)
}

func (r *Receiver) verify(authHeader string) error {
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return ErrInvalidSignature
	}
	raw := authHeader[len(prefix):]

	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("bridge: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(r.signingKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return nil
}
