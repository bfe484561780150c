package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

func TestDeriveSessionIDIsDeterministic(t *testing.T) {
	a := DeriveSessionID("main")
	b := DeriveSessionID("main")
	c := DeriveSessionID("other-group")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAllowlistFilterDropsUnlistedPaths(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "allowlist.json")
	require.NoError(t, os.WriteFile(listPath, []byte(`{"allowed_host_paths":["/srv/shared"]}`), 0o600))

	al := NewAllowlist(listPath, nil)
	mounts := []store.ExtraMount{
		{HostPath: "/srv/shared", ContainerPath: "/mnt/shared", ReadOnly: true},
		{HostPath: "/etc", ContainerPath: "/mnt/etc"},
	}

	out := al.Filter(context.Background(), "main", mounts)
	require.Len(t, out, 1)
	assert.Equal(t, "/srv/shared", out[0].HostPath)
}

func TestAllowlistFilterMissingFileDeniesAll(t *testing.T) {
	al := NewAllowlist(filepath.Join(t.TempDir(), "nope.json"), nil)
	out := al.Filter(context.Background(), "main", []store.ExtraMount{{HostPath: "/srv/shared"}})
	assert.Empty(t, out)
}

// fakeSandbox writes an executable shell script that ignores its argv,
// reads one line from stdin and echoes a canned response, simulating the
// out-of-scope sandbox executable's contract.
func fakeSandbox(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sandbox.sh")
	script := "#!/bin/sh\nread line\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunnerRunPersistsNewSessionOnOK(t *testing.T) {
	sandbox := fakeSandbox(t, `echo '{"status":"ok","result":"done","newSessionId":"abc-123"}'`)

	p := &profile.Profile{
		ContainerImage:     sandbox,
		ContainerTimeout:   2 * time.Second,
		ContainerMaxOutput: 4096,
		GroupsDir:          t.TempDir(),
		MountAllowlistPath: filepath.Join(t.TempDir(), "allowlist.json"),
	}
	st := store.New(storetest.NewMemDriver())
	al := NewAllowlist(p.MountAllowlistPath, nil)
	r := NewRunner(p, st, al, metrics.New(), nil)

	group := &store.RegisteredGroup{Folder: "demo"}
	resp, err := r.Run(context.Background(), group, "123@chat", "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "done", resp.Result)

	sess, err := st.GetSession(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", sess.SessionID)
}

func TestRunnerRunIsolatedDoesNotPersistSession(t *testing.T) {
	sandbox := fakeSandbox(t, `echo '{"status":"ok","result":"done","newSessionId":"throwaway"}'`)

	p := &profile.Profile{
		ContainerImage:     sandbox,
		ContainerTimeout:   2 * time.Second,
		ContainerMaxOutput: 4096,
		GroupsDir:          t.TempDir(),
		MountAllowlistPath: filepath.Join(t.TempDir(), "allowlist.json"),
	}
	st := store.New(storetest.NewMemDriver())
	al := NewAllowlist(p.MountAllowlistPath, nil)
	r := NewRunner(p, st, al, metrics.New(), nil)

	group := &store.RegisteredGroup{Folder: "demo"}
	resp, err := r.RunIsolated(context.Background(), group, "123@chat", "hello")
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Result)

	_, err = st.GetSession(context.Background(), "demo")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunnerRunTimesOut(t *testing.T) {
	sandbox := fakeSandbox(t, "sleep 2")

	p := &profile.Profile{
		ContainerImage:     sandbox,
		ContainerTimeout:   50 * time.Millisecond,
		ContainerMaxOutput: 4096,
		GroupsDir:          t.TempDir(),
		MountAllowlistPath: filepath.Join(t.TempDir(), "allowlist.json"),
	}
	st := store.New(storetest.NewMemDriver())
	al := NewAllowlist(p.MountAllowlistPath, nil)
	r := NewRunner(p, st, al, metrics.New(), nil)

	group := &store.RegisteredGroup{Folder: "demo"}
	_, err := r.Run(context.Background(), group, "123@chat", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}
