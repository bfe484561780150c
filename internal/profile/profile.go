// Package profile holds the router's validated runtime configuration,
// assembled from flags/env by cmd/router and passed explicitly to every
// subsystem — no subsystem reads the environment directly.
package profile

import (
	"time"

	"github.com/pkg/errors"
)

// Profile is the orchestrator's configuration, the single source of truth
// every subsystem is constructed from.
type Profile struct {
	// Storage
	Driver string // "sqlite" (default) or "postgres"
	DSN    string

	// Filesystem layout (§6)
	DataDir   string // holds ipc/, kb-locks/, kb-feeds/
	GroupsDir string // holds groups/<folder>/CLAUDE.md and logs/

	// Assistant identity
	AssistantName string // prefixes outbound replies, e.g. "bhai"
	BotPrefixes   []string

	// Transport / bridge
	BridgeBaseURL     string
	BridgeAPIKey      string
	BridgeWebhookAddr string // local address the bridge posts inbound messages to
	BridgeSigningKey  string // HMAC/JWT key shared with the bridge for webhook auth

	TelegramBotToken string // optional secondary channel

	// Container runner (§4.5)
	ContainerImage     string
	ContainerTimeout   time.Duration
	ContainerMaxOutput int64
	MountAllowlistPath string // outside DataDir/GroupsDir, per spec

	// Scheduler (§4.7)
	SchedulerTimezone string // IANA zone name
	SchedulerInterval time.Duration

	// Intake loop (§4.3)
	IntakePollInterval time.Duration

	// IPC broker (§4.6)
	IPCPollInterval time.Duration

	// KB pipeline (§4.4)
	EmbeddingsBaseURL string
	EmbeddingsAPIKey  string
	EmbeddingsModel   string
	KBMaxContentBytes int64

	// External CLI tools (§4.8)
	ExternalCLITimeout    time.Duration
	ExternalCLIConfigPath string

	// KB extraction
	VideoTranscriptCLIPath string

	// Admin surface: /healthz (loop status) and /metrics (Prometheus),
	// queried by `router status` and scraped by Prometheus respectively.
	AdminAddr string
}

// Validate checks required fields and fills in safe defaults. It is run
// once at startup; a failure here is a fatal configuration error (non-zero
// exit, never a retry).
func (p *Profile) Validate() error {
	if p.DataDir == "" {
		return errors.New("profile: data dir required")
	}
	if p.GroupsDir == "" {
		return errors.New("profile: groups dir required")
	}
	if p.AssistantName == "" {
		return errors.New("profile: assistant name required")
	}
	if p.MountAllowlistPath == "" {
		return errors.New("profile: mount allowlist path required")
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.ContainerTimeout <= 0 {
		p.ContainerTimeout = 300 * time.Second
	}
	if p.ContainerMaxOutput <= 0 {
		p.ContainerMaxOutput = 10 << 20 // 10 MiB
	}
	if p.SchedulerTimezone == "" {
		p.SchedulerTimezone = "UTC"
	}
	if p.SchedulerInterval <= 0 {
		p.SchedulerInterval = 60 * time.Second
	}
	if p.IntakePollInterval <= 0 {
		p.IntakePollInterval = 2 * time.Second
	}
	if p.IPCPollInterval <= 0 {
		p.IPCPollInterval = time.Second
	}
	if p.ExternalCLITimeout <= 0 {
		p.ExternalCLITimeout = 30 * time.Second
	}
	if p.KBMaxContentBytes <= 0 {
		p.KBMaxContentBytes = 4 << 20 // 4 MB
	}
	if len(p.BotPrefixes) == 0 {
		p.BotPrefixes = []string{p.AssistantName}
	}
	if p.AdminAddr == "" {
		p.AdminAddr = "127.0.0.1:9090"
	}

	if _, err := time.LoadLocation(p.SchedulerTimezone); err != nil {
		return errors.Wrapf(err, "profile: invalid scheduler timezone %q", p.SchedulerTimezone)
	}

	return nil
}
