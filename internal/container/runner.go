// Package container spawns the sandboxed per-group agent process, feeds it
// a single request on stdin, and reads its single response line back from
// stdout.
package container

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/store"
)

const (
	// Scanner buffer sizes for sandbox stdout parsing.
	scannerInitialBufSize = 64 * 1024

	mainProjectRoot = "/workspace"
)

// chatRouterNamespace is a fixed UUID v5 namespace for deriving session
// ids from group folders, so a group's session id survives a router
// restart without a prior SetSession call ever having run.
var chatRouterNamespace = uuid.Must(uuid.Parse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))

// DeriveSessionID returns a deterministic session id for a group folder
// that has never had one persisted yet.
func DeriveSessionID(groupFolder string) string {
	return uuid.NewSHA1(chatRouterNamespace, []byte("chatrouter:group:"+groupFolder)).String()
}

// Runner executes the sandboxed agent, one run at a time per group.
type Runner struct {
	profile   *profile.Profile
	store     *store.Store
	allowlist *Allowlist
	metrics   *metrics.Registry
	logger    *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewRunner builds a Runner. The sandbox agent binary (or image entrypoint
// wrapper) it runs is Profile.ContainerImage.
func NewRunner(p *profile.Profile, st *store.Store, allowlist *Allowlist, reg *metrics.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		profile:   p,
		store:     st,
		allowlist: allowlist,
		metrics:   reg,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (r *Runner) groupLock(groupFolder string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	mu, ok := r.locks[groupFolder]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[groupFolder] = mu
	}
	return mu
}

// Run spawns the sandbox for one group and blocks until it replies, times
// out, or is killed for producing too much output. At most one Run per
// group executes at a time; a second caller blocks behind the group's
// mutex rather than running concurrently. The group's persisted session
// is reused and, on success, updated — the §4.7 context_mode=group path.
func (r *Runner) Run(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt string) (*Response, error) {
	session, err := r.store.GetSession(ctx, group.Folder)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "container: load session")
	}
	sessionID := ""
	if session != nil {
		sessionID = session.SessionID
	}
	return r.run(ctx, group, chatJID, prompt, sessionID, true)
}

// RunIsolated spawns the sandbox with no session id and never persists
// whatever new session id the sandbox returns — the §4.7
// context_mode=isolated path, used for scheduled tasks that must not
// perturb the group's ongoing conversation.
func (r *Runner) RunIsolated(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt string) (*Response, error) {
	return r.run(ctx, group, chatJID, prompt, "", false)
}

func (r *Runner) run(ctx context.Context, group *store.RegisteredGroup, chatJID, prompt, sessionID string, persistSession bool) (*Response, error) {
	mu := r.groupLock(group.Folder)
	mu.Lock()
	defer mu.Unlock()

	req := &Request{
		Prompt:      prompt,
		SessionID:   sessionID,
		GroupFolder: group.Folder,
		ChatJID:     chatJID,
		IsMain:      group.IsMain(),
	}

	mounts := r.allowlist.Filter(ctx, group.Folder, group.ExtraMounts)

	timeout := r.profile.ContainerTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, runErr := r.exec(runCtx, req, mounts)
	duration := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(runErr, ErrTimeout):
		outcome = "timeout"
	case errors.Is(runErr, ErrOversize):
		outcome = "oversize"
	case runErr != nil:
		outcome = "error"
	case resp.Status != StatusOK:
		outcome = "error"
	}
	if r.metrics != nil {
		r.metrics.ContainerRuns.WithLabelValues(group.Folder, outcome).Inc()
		r.metrics.ContainerRunDuration.WithLabelValues(group.Folder).Observe(duration.Seconds())
	}

	if runErr != nil {
		r.logger.Error("container run failed", "group", group.Folder, "error", runErr)
		return nil, runErr
	}

	if persistSession && resp.Status == StatusOK {
		newID := resp.NewSessionID
		if newID == "" {
			newID = sessionID
		}
		if newID != "" {
			if _, err := r.store.SetSession(ctx, group.Folder, newID, time.Now().Unix()); err != nil {
				r.logger.Warn("failed to persist session id", "group", group.Folder, "error", err)
			}
		}
	}

	return resp, nil
}

// mountArgs renders the allowed mounts plus the group/main directories as
// the sandbox's command-line bind-mount arguments. The sandbox executable
// itself interprets these; the router only ever proposes paths that have
// already cleared the allowlist.
func (r *Runner) mountArgs(group *store.RegisteredGroup, mounts []store.ExtraMount) []string {
	args := []string{
		"--mount", fmt.Sprintf("%s:/workspace/group:rw", r.groupDir(group.Folder)),
	}
	if group.IsMain() {
		args = append(args, "--mount", mainProjectRoot+":/workspace/project:rw")
	}
	for _, m := range mounts {
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		args = append(args, "--mount", fmt.Sprintf("%s:%s:%s", m.HostPath, m.ContainerPath, mode))
	}
	return args
}

func (r *Runner) groupDir(folder string) string {
	return r.profile.GroupsDir + "/" + folder
}

func (r *Runner) exec(ctx context.Context, req *Request, mounts []store.ExtraMount) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "container: marshal request")
	}

	args := r.mountArgs(&store.RegisteredGroup{Folder: req.GroupFolder}, mounts)
	cmd := exec.CommandContext(ctx, r.profile.ContainerImage, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "container: stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "container: stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "container: start")
	}

	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		_ = cmd.Process.Kill()
		return nil, errors.Wrap(err, "container: write request")
	}
	_ = stdin.Close()

	maxOutput := r.profile.ContainerMaxOutput
	if maxOutput <= 0 {
		maxOutput = 10 * 1024 * 1024
	}

	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 0, scannerInitialBufSize)
	scanner.Buffer(buf, int(maxOutput))

	var line string
	scanErrCh := make(chan error, 1)
	go func() {
		for scanner.Scan() {
			line = scanner.Text()
			if line != "" {
				break
			}
		}
		scanErrCh <- scanner.Err()
	}()

	select {
	case err := <-scanErrCh:
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			if isBufferOverflow(err) {
				return nil, ErrOversize
			}
			return nil, errors.Wrap(err, "container: read response")
		}
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, ErrTimeout
	}

	waitErr := cmd.Wait()

	if line == "" {
		if waitErr != nil {
			return nil, errors.Wrapf(ErrExit, "no output, process error: %v", waitErr)
		}
		return nil, errors.Wrap(ErrExit, "sandbox produced no response line")
	}

	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, errors.Wrap(err, "container: parse response")
	}
	return &resp, nil
}

func isBufferOverflow(err error) bool {
	return errors.Is(err, bufio.ErrTooLong)
}
