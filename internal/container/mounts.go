package container

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// Allowlist is the mount security policy loaded from a file that lives
// outside the project root and is never itself mounted into any sandbox.
type Allowlist struct {
	path   string
	logger *slog.Logger
}

// NewAllowlist returns an Allowlist backed by the file at path; the file is
// read each time it is consulted, not here. A missing file means "nothing
// is allowed", not an error (the operator has simply not opted any host
// path in yet).
func NewAllowlist(path string, logger *slog.Logger) *Allowlist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allowlist{path: path, logger: logger}
}

type allowlistFile struct {
	AllowedHostPaths []string `json:"allowed_host_paths"`
}

func (a *Allowlist) load() (map[string]bool, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read mount allowlist")
	}
	var f allowlistFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse mount allowlist")
	}
	set := make(map[string]bool, len(f.AllowedHostPaths))
	for _, p := range f.AllowedHostPaths {
		set[p] = true
	}
	return set, nil
}

// Filter returns only the mounts whose HostPath is present in the
// allowlist, logging a denial for every mount it drops. extra_mounts are
// resolved here — never passed through unchecked to the sandbox.
func (a *Allowlist) Filter(ctx context.Context, groupFolder string, mounts []store.ExtraMount) []store.ExtraMount {
	allowed, err := a.load()
	if err != nil {
		a.logger.Warn("mount allowlist unreadable, denying all extra mounts", "group", groupFolder, "error", err)
		return nil
	}

	out := make([]store.ExtraMount, 0, len(mounts))
	for _, m := range mounts {
		if allowed[m.HostPath] {
			out = append(out, m)
			continue
		}
		a.logger.Warn("extra mount denied: not in allowlist", "group", groupFolder, "host_path", m.HostPath)
	}
	return out
}
