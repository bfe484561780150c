package ipcbroker

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// Dispatcher handles one parsed IPC payload. sourceGroup is the
// directory the payload was found under — the authorization identity
// (§4.6's central invariant) — and isMain reports whether that is the
// privileged main group.
type Dispatcher interface {
	Dispatch(ctx context.Context, payloadType string, raw []byte, sourceGroup string, isMain bool) error
}

// Broker polls the ipc directory tree and dispatches queued payloads.
type Broker struct {
	ipcDir       string
	store        *store.Store
	dispatcher   Dispatcher
	pollInterval time.Duration
	logger       *slog.Logger

	startOnce sync.Once
}

func NewBroker(ipcDir string, st *store.Store, dispatcher Dispatcher, pollInterval time.Duration, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		ipcDir:       ipcDir,
		store:        st,
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run polls until ctx is cancelled. A second call is a no-op (duplicate-
// start guard, §5).
func (b *Broker) Run(ctx context.Context) error {
	var err error
	b.startOnce.Do(func() {
		err = b.run(ctx)
	})
	return err
}

func (b *Broker) run(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.poll(ctx)
		}
	}
}

// poll is one pass over every <sourceGroup> directory under ipc/.
func (b *Broker) poll(ctx context.Context) {
	entries, err := os.ReadDir(b.ipcDir)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Error("ipcbroker: read ipc dir failed", "err", err)
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "errors" {
			continue
		}
		sourceGroup := entry.Name()

		group, err := b.store.GetGroup(ctx, &store.FindGroup{Folder: &sourceGroup})
		if err != nil || group == nil {
			b.logger.Warn("ipcbroker: dropping payloads from unregistered source", "source_group", sourceGroup)
			continue
		}
		isMain := group.IsMain()

		b.processSubdir(ctx, sourceGroup, "messages", isMain)
		b.processSubdir(ctx, sourceGroup, "tasks", isMain)
	}
}

func (b *Broker) processSubdir(ctx context.Context, sourceGroup, kind string, isMain bool) {
	dir := filepath.Join(b.ipcDir, sourceGroup, kind)
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		b.logger.Error("ipcbroker: glob failed", "dir", dir, "err", err)
		return
	}

	for _, path := range files {
		b.processFile(ctx, sourceGroup, path)
	}
}

func (b *Broker) processFile(ctx context.Context, sourceGroup, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		b.logger.Warn("ipcbroker: read payload failed", "path", path, "err", err)
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.moveToErrors(sourceGroup, path)
		b.logger.Warn("ipcbroker: invalid payload JSON", "path", path, "err", err)
		return
	}

	group, err := b.store.GetGroup(ctx, &store.FindGroup{Folder: &sourceGroup})
	if err != nil {
		b.moveToErrors(sourceGroup, path)
		return
	}

	if err := b.dispatcher.Dispatch(ctx, env.Type, raw, sourceGroup, group.IsMain()); err != nil {
		b.moveToErrors(sourceGroup, path)
		b.logger.Warn("ipcbroker: dispatch failed", "path", path, "type", env.Type, "err", err)
		return
	}

	if err := os.Remove(path); err != nil {
		b.logger.Warn("ipcbroker: remove handled payload failed", "path", path, "err", err)
	}
}

func (b *Broker) moveToErrors(sourceGroup, path string) {
	errDir := filepath.Join(b.ipcDir, "errors")
	if err := os.MkdirAll(errDir, 0o755); err != nil {
		b.logger.Error("ipcbroker: create errors dir failed", "err", err)
		return
	}
	dest := filepath.Join(errDir, sourceGroup+"-"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		b.logger.Error("ipcbroker: move payload to errors failed", "path", path, "err", errors.Wrap(err, "rename"))
	}
}
