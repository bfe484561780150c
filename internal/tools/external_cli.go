package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// CLISpec is one external CLI's dispatch rule: the real binary it maps
// to, fixed leading args the payload can never override, and which
// sourceGroups may invoke it (empty means every registered group).
type CLISpec struct {
	Command       string   `json:"command"`
	BaseArgs      []string `json:"base_args"`
	AllowedGroups []string `json:"allowed_groups"`
}

func (s CLISpec) allows(sourceGroup string, isMain bool) bool {
	if isMain || len(s.AllowedGroups) == 0 {
		return true
	}
	for _, g := range s.AllowedGroups {
		if g == sourceGroup {
			return true
		}
	}
	return false
}

// ExternalCLI wraps the github_*/sugar_* CLI tools (§4.8): each IPC
// payload type not otherwise recognized is looked up here and, if
// declared, invoked argv-style — never through a shell.
type ExternalCLI struct {
	specs   map[string]CLISpec
	timeout time.Duration
	logger  *slog.Logger
}

// NewExternalCLI loads the CLI dispatch table from a JSON file
// ({"github_review": {"command": "/usr/local/bin/gh-review", ...}, ...}).
// A missing file means no external CLI types are declared, not an error.
func NewExternalCLI(path string, timeout time.Duration, logger *slog.Logger) (*ExternalCLI, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	specs := map[string]CLISpec{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "tools: read external CLI config")
	default:
		if err := json.Unmarshal(data, &specs); err != nil {
			return nil, errors.Wrap(err, "tools: parse external CLI config")
		}
	}

	return &ExternalCLI{specs: specs, timeout: timeout, logger: logger}, nil
}

type externalCLIPayload struct {
	Type    string   `json:"type"`
	ChatJID string   `json:"chat_jid"`
	Args    []string `json:"args"`
}

func (d *Dispatcher) handleExternalCLI(ctx context.Context, payloadType string, raw []byte, sourceGroup string, isMain bool) error {
	if d.cli == nil {
		return errors.Errorf("tools: unknown IPC payload type %q", payloadType)
	}
	spec, ok := d.cli.specs[payloadType]
	if !ok {
		return errors.Errorf("tools: unknown IPC payload type %q", payloadType)
	}
	if !spec.allows(sourceGroup, isMain) {
		return ErrUnauthorized
	}

	var p externalCLIPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	for _, a := range p.Args {
		if !validCLIArg(a) {
			return errors.Wrap(ErrInvalidPayload, "arg contains control characters")
		}
	}

	chatJID := p.ChatJID
	if chatJID == "" {
		var err error
		chatJID, err = d.resolveChatJID(ctx, sourceGroup)
		if err != nil {
			return err
		}
	}

	out, err := d.cli.run(ctx, spec, p.Args)
	if err != nil {
		return errors.Wrapf(err, "tools: external CLI %q failed", payloadType)
	}
	return d.sender.Send(ctx, chatJID, out)
}

func (c *ExternalCLI) run(ctx context.Context, spec CLISpec, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	argv := append(append([]string{}, spec.BaseArgs...), args...)
	cmd := exec.CommandContext(runCtx, spec.Command, argv...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return "", errors.Wrap(runCtx.Err(), "timed out")
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// validCLIArg rejects control characters (including NUL) so a malicious
// or buggy agent can't smuggle a newline-injected or NUL-terminated
// argument past argv, even though no shell ever parses these strings.
func validCLIArg(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
