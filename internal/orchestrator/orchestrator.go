// Package orchestrator wires the router's cooperating subsystems — the
// Transport Adapter, Container Runner, Intake Loop, Scheduler, KB
// Pipeline, IPC Broker and Tool Dispatcher — into a single value that
// owns their lifecycle, the way the teacher's server.Server bundles a
// store and its dependents behind NewServer/Start/Shutdown. Running
// process state (session derivation, per-group locks, watermarks) lives
// inside the subsystem that owns it; nothing here is a package-level
// variable (spec.md §9 "global process state -> explicit context").
package orchestrator

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/chatrouter/internal/container"
	"github.com/hrygo/chatrouter/internal/intake"
	"github.com/hrygo/chatrouter/internal/ipcbroker"
	"github.com/hrygo/chatrouter/internal/kb"
	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/scheduler"
	"github.com/hrygo/chatrouter/internal/tools"
	"github.com/hrygo/chatrouter/internal/transport"
	"github.com/hrygo/chatrouter/store"
)

// Orchestrator owns every long-running loop and the objects they share.
type Orchestrator struct {
	profile *profile.Profile
	store   *store.Store
	metrics *metrics.Registry
	logger  *slog.Logger

	adapter *transport.Adapter
	runner  *container.Runner
	kb      *kb.Pipeline
	intake  *intake.Loop
	sched   *scheduler.Scheduler
	broker  *ipcbroker.Broker
	tools   *tools.Dispatcher

	health *health
	admin  *adminServer
}

// New assembles every subsystem from a validated profile, an already
// migrated store, and the chat Channel the operator configured (bridge or
// telegram). It performs no I/O beyond what each subsystem's constructor
// does (e.g. reading the external CLI config file); call Start to begin
// polling.
func New(ctx context.Context, p *profile.Profile, st *store.Store, channel transport.Channel, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := metrics.New()

	adapter := transport.NewAdapter(channel, st, logger)

	allowlist := container.NewAllowlist(p.MountAllowlistPath, logger)
	runner := container.NewRunner(p, st, allowlist, reg, logger)

	var embedder kb.Embedder
	if p.EmbeddingsBaseURL != "" {
		embedder = kb.NewOpenAIEmbedder(p.EmbeddingsBaseURL, p.EmbeddingsAPIKey, p.EmbeddingsModel)
	}
	extractor := kb.NewExtractor(p.VideoTranscriptCLIPath)
	pipeline := kb.NewPipeline(st, embedder, extractor,
		filepath.Join(p.DataDir, "kb-locks"), filepath.Join(p.DataDir, "kb-feeds"), logger)

	intakeLoop := intake.NewLoop(st, runner, adapter, pipeline, pipeline, p, logger)
	sched := scheduler.NewScheduler(st, runner, adapter, p, reg, logger)

	cli, err := tools.NewExternalCLI(p.ExternalCLIConfigPath, p.ExternalCLITimeout, logger)
	if err != nil {
		return nil, errors.Wrap(err, "orchestrator: load external CLI config")
	}
	dispatcher := tools.NewDispatcher(st, adapter, adapter, pipeline, cli, p, reg, logger)
	broker := ipcbroker.NewBroker(filepath.Join(p.DataDir, "ipc"), st, dispatcher, p.IPCPollInterval, logger)

	o := &Orchestrator{
		profile: p,
		store:   st,
		metrics: reg,
		logger:  logger,
		adapter: adapter,
		runner:  runner,
		kb:      pipeline,
		intake:  intakeLoop,
		sched:   sched,
		broker:  broker,
		tools:   dispatcher,
		health:  newHealth("intake", "scheduler", "ipc_broker"),
	}
	o.admin = newAdminServer(p.AdminAddr, o)
	return o, nil
}

// Metrics exposes the Prometheus registry, e.g. for a test that wants to
// assert a counter moved; cmd/router's own /metrics route is served by
// the admin HTTP server Start already runs.
func (o *Orchestrator) Metrics() *metrics.Registry {
	return o.metrics
}

// Start subscribes the transport, brings up the admin HTTP server
// (/healthz, /metrics), and runs every polling loop until ctx is
// cancelled, returning the first error any of them returns (ctx.Err() on
// a clean shutdown). Inbound messages are persisted as soon as they
// arrive; the Intake Loop picks them up on its own cadence rather than
// being driven directly by the transport callback, so a slow container
// run never blocks delivery of the next message into the store.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.adapter.Start(ctx, o.persistIncoming(ctx)); err != nil {
		return errors.Wrap(err, "orchestrator: start transport")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.health.runTracked("intake", func() error { return o.intake.Run(ctx) }) })
	g.Go(func() error { return o.health.runTracked("scheduler", func() error { return o.sched.Run(ctx) }) })
	g.Go(func() error { return o.health.runTracked("ipc_broker", func() error { return o.broker.Run(ctx) }) })
	g.Go(func() error { return o.admin.Run(ctx) })
	return g.Wait()
}

func (o *Orchestrator) persistIncoming(ctx context.Context) func(*transport.IncomingMessage) {
	return func(msg *transport.IncomingMessage) {
		if _, err := o.store.StoreMessage(ctx, &store.CreateMessage{
			ID:         msg.MessageID,
			ChatJID:    msg.ChatJID,
			SenderName: msg.SenderName,
			Content:    msg.Content,
			Timestamp:  msg.Timestamp,
		}); err != nil {
			o.logger.Error("orchestrator: persist inbound message failed", "chat_jid", msg.ChatJID, "err", err)
		}
	}
}

// Shutdown releases the transport channel. Polling loops stop when their
// ctx (passed to Start) is cancelled by the caller; this only tears down
// what Start doesn't own via that context.
func (o *Orchestrator) Shutdown(context.Context) error {
	return errors.Wrap(o.adapter.Close(), "orchestrator: close transport")
}
