package kb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// groupLock is a per-process, per-group ingest lock backed by an
// exclusive lock file (step 1), so concurrent ingest calls for the same
// group — whether from the intake loop's fire-and-forget goroutines or a
// tool-handler request — serialize. No file-locking library appears
// anywhere in the reference example set, so this uses os.OpenFile with
// O_EXCL, the standard-library primitive for an exclusive-create lock.
type groupLock struct {
	dir string

	mu     sync.Mutex
	active map[string]*sync.Mutex
}

func newGroupLock(dir string) *groupLock {
	return &groupLock{dir: dir, active: make(map[string]*sync.Mutex)}
}

func (l *groupLock) inProcessMutex(groupFolder string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.active[groupFolder]
	if !ok {
		m = &sync.Mutex{}
		l.active[groupFolder] = m
	}
	return m
}

// Acquire takes the in-process mutex and an exclusive lock file for
// groupFolder, retrying both until ctx is cancelled. The returned func
// releases both.
func (l *groupLock) Acquire(ctx context.Context, groupFolder string) (func(), error) {
	m := l.inProcessMutex(groupFolder)
	for !m.TryLock() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}

	path := filepath.Join(l.dir, groupFolder+".ingest.lock")
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		m.Unlock()
		return nil, errors.Wrap(err, "kb: create lock dir")
	}

	var f *os.File
	for {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			m.Unlock()
			return nil, errors.Wrap(err, "kb: acquire ingest lock")
		}
		select {
		case <-ctx.Done():
			m.Unlock()
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}

	release := func() {
		f.Close()
		os.Remove(path)
		m.Unlock()
	}
	return release, nil
}
