package scheduler

import (
	"context"

	"github.com/hrygo/chatrouter/internal/container"
	"github.com/hrygo/chatrouter/store"
)

// Runner is the subset of the Container Runner the scheduler drives. It
// needs both session modes: Run (context_mode=group) and RunIsolated
// (context_mode=isolated).
type Runner interface {
	Run(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt string) (*container.Response, error)
	RunIsolated(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt string) (*container.Response, error)
}

// Sender is the subset of the Transport Adapter the scheduler needs to
// deliver a task's reply.
type Sender interface {
	Send(ctx context.Context, chatJID, text string) error
}
