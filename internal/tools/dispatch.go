// Package tools implements the IPC-requested effect handlers (C8): each
// payload the IPC Broker hands off is type-switched to one of these
// handlers, which applies the authorization rule for that type and then
// performs the effect (chat send, task CRUD, group registration, KB
// mutation, external CLI invocation).
package tools

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/ipcbroker"
	"github.com/hrygo/chatrouter/internal/kb"
	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/store"
)

// Sender is the subset of the Transport Adapter a handler needs to reply.
type Sender interface {
	Send(ctx context.Context, chatJID, text string) error
}

// GroupSyncer is the subset of the Transport Adapter refresh_groups needs.
type GroupSyncer interface {
	SyncChatMetadata(ctx context.Context) error
}

// KB is the subset of the KB pipeline the kb_* handlers drive. It is
// satisfied directly by *kb.Pipeline; the narrow interface exists for
// tests, not to avoid an import cycle (tools is free to import kb).
type KB interface {
	Ingest(ctx context.Context, opts *kb.IngestOptions) (*store.KBSource, error)
	Update(ctx context.Context, sourceID, title, rawText string, tags []string) (*store.KBSource, error)
	Delete(ctx context.Context, sourceID string) error
	SearchChunks(ctx context.Context, opts *kb.SearchOptions) ([]kb.SearchHit, error)
	ListSources(ctx context.Context, groupFolder string) ([]*store.KBSource, error)
	GetSource(ctx context.Context, sourceID string) (*store.KBSource, error)
}

var (
	_ ipcbroker.Dispatcher = (*Dispatcher)(nil)
)

// Dispatcher routes one IPC payload to its handler and enforces §4.8's
// per-type authorization rule before any effect runs.
type Dispatcher struct {
	store       *store.Store
	sender      Sender
	groupSyncer GroupSyncer
	kb          KB
	cli         *ExternalCLI
	profile     *profile.Profile
	metrics     *metrics.Registry
	logger      *slog.Logger
}

func NewDispatcher(st *store.Store, sender Sender, groupSyncer GroupSyncer, kb KB, cli *ExternalCLI, p *profile.Profile, reg *metrics.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store: st, sender: sender, groupSyncer: groupSyncer, kb: kb, cli: cli,
		profile: p, metrics: reg, logger: logger,
	}
}

// Dispatch implements ipcbroker.Dispatcher. sourceGroup is the directory
// the payload was found under — the authorization identity — and isMain
// reports whether that is the privileged main group.
func (d *Dispatcher) Dispatch(ctx context.Context, payloadType string, raw []byte, sourceGroup string, isMain bool) error {
	var err error
	switch payloadType {
	case "message":
		err = d.handleMessage(ctx, raw, sourceGroup, isMain)
	case "schedule_task":
		err = d.handleScheduleTask(ctx, raw, sourceGroup, isMain)
	case "pause_task":
		err = d.handleTaskStatus(ctx, raw, sourceGroup, isMain, store.TaskPaused)
	case "resume_task":
		err = d.handleTaskStatus(ctx, raw, sourceGroup, isMain, store.TaskActive)
	case "cancel_task":
		err = d.handleCancelTask(ctx, raw, sourceGroup, isMain)
	case "register_group":
		err = d.handleRegisterGroup(ctx, raw, isMain)
	case "refresh_groups":
		err = d.handleRefreshGroups(ctx, isMain)
	case "kb_add":
		err = d.handleKBAdd(ctx, raw, sourceGroup)
	case "kb_search":
		err = d.handleKBSearch(ctx, raw, sourceGroup)
	case "kb_list":
		err = d.handleKBList(ctx, raw, sourceGroup)
	case "kb_update":
		err = d.handleKBUpdate(ctx, raw, sourceGroup)
	case "kb_delete":
		err = d.handleKBDelete(ctx, raw, sourceGroup)
	default:
		err = d.handleExternalCLI(ctx, payloadType, raw, sourceGroup, isMain)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	case err != nil:
		outcome = "error"
	}
	if d.metrics != nil {
		d.metrics.IPCDispatched.WithLabelValues(payloadType, outcome).Inc()
	}
	return err
}
