package intake

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/container"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/render"
	"github.com/hrygo/chatrouter/store"
)

// kbSearchLimit bounds how many KB hits get prepended to a question prompt.
const kbSearchLimit = 5

// ingestTimeout bounds a single fire-and-forget URL ingest.
const ingestTimeout = 2 * time.Minute

// Loop is the message intake loop (§4.3): it polls the store for newly
// delivered messages, filters them by registration/trigger/admission,
// side-ingests any URLs, assembles a context window, drives a Container
// Runner invocation, and sends the reply back through the transport.
type Loop struct {
	store      *store.Store
	runner     Runner
	sender     Sender
	kbSearcher KBSearcher
	kbIngester KBIngester
	profile    *profile.Profile
	logger     *slog.Logger

	mu           sync.Mutex
	lastGlobalTS int64
	lastAgentTS  map[string]int64 // chat JID -> last timestamp included in a prompt
}

// NewLoop constructs a Loop. kbSearcher/kbIngester may be nil, in which
// case KB side-ingestion and question-prepend are both skipped.
func NewLoop(st *store.Store, runner Runner, sender Sender, kbSearcher KBSearcher, kbIngester KBIngester, p *profile.Profile, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		store:       st,
		runner:      runner,
		sender:      sender,
		kbSearcher:  kbSearcher,
		kbIngester:  kbIngester,
		profile:     p,
		logger:      logger,
		lastAgentTS: make(map[string]int64),
	}
}

// Run polls until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.profile.IntakePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.poll(ctx)
		}
	}
}

// poll runs a single pass: fetch new messages across every registered
// group and process them in order, stopping at the first failure so the
// failing message is retried on the next pass (step 7, at-least-once).
func (l *Loop) poll(ctx context.Context) {
	groups, err := l.store.ListGroups(ctx)
	if err != nil {
		l.logger.Error("intake: list groups failed", "err", err)
		return
	}
	if len(groups) == 0 {
		return
	}

	byJID := make(map[string]*store.RegisteredGroup, len(groups))
	jids := make([]string, 0, len(groups))
	for _, g := range groups {
		byJID[g.JID] = g
		jids = append(jids, g.JID)
	}

	l.mu.Lock()
	since := l.lastGlobalTS
	l.mu.Unlock()

	messages, err := l.store.GetNewMessages(ctx, jids, since, l.profile.BotPrefixes)
	if err != nil {
		l.logger.Error("intake: get new messages failed", "err", err)
		return
	}

	for _, m := range messages {
		group, ok := byJID[m.ChatJID]
		if !ok {
			continue
		}
		handled, err := l.handleMessage(ctx, group, m)
		if err != nil {
			l.logger.Error("intake: handling message failed, will retry", "chat_jid", m.ChatJID, "message_id", m.ID, "err", err)
			return
		}

		l.mu.Lock()
		if handled {
			l.lastAgentTS[m.ChatJID] = m.Timestamp
		}
		l.lastGlobalTS = m.Timestamp
		l.mu.Unlock()
	}
}

// handleMessage runs steps 1-6 for a single message. The bool return is
// true only when the message was actually folded into a prompt and sent
// to the runner; it is false when the message was deliberately ignored
// (trigger mismatch, admission denied) — last_agent_ts (the start of the
// context window, §4.3) only advances for the former, so an ignored
// message stays in a later triggered message's window instead of being
// skipped past. last_global_ts advances either way, by the caller. A
// non-nil error means a transient failure that should stop the batch and
// be retried.
func (l *Loop) handleMessage(ctx context.Context, group *store.RegisteredGroup, m *store.Message) (bool, error) {
	if !group.IsMain() && !MatchesTrigger(m.Content, group.Trigger) {
		return false, nil
	}

	if group.AdmissionRule != "" {
		allowed, err := EvaluateAdmission(group.AdmissionRule, m.SenderName, m.Content, time.UnixMilli(m.Timestamp), group.IsMain())
		if err != nil {
			l.logger.Warn("intake: admission rule error, denying", "group", group.Folder, "err", err)
			return false, nil
		}
		if !allowed {
			return false, nil
		}
	}

	l.ingestURLs(group.Folder, m.Content)

	l.mu.Lock()
	agentSince := l.lastAgentTS[group.JID]
	l.mu.Unlock()

	history, err := l.store.GetMessagesSince(ctx, group.JID, agentSince, l.profile.BotPrefixes)
	if err != nil {
		return false, errors.Wrap(err, "intake: load context window")
	}

	prompt := BuildContextWindow(history)
	if kb := l.knowledgeBasePrepend(ctx, group, m.Content); kb != "" {
		prompt = kb + "\n" + prompt
	}

	if err := l.sender.SetPresence(ctx, group.JID, true); err != nil {
		l.logger.Warn("intake: set presence failed", "group", group.Folder, "err", err)
	}
	resp, err := l.runner.Run(ctx, group, group.JID, prompt)
	if presenceErr := l.sender.SetPresence(ctx, group.JID, false); presenceErr != nil {
		l.logger.Warn("intake: clear presence failed", "group", group.Folder, "err", presenceErr)
	}
	if err != nil {
		return false, errors.Wrap(err, "intake: container run failed")
	}
	if resp.Status != container.StatusOK {
		return false, errors.Errorf("intake: container returned error: %s", resp.Error)
	}

	plain, err := render.ToPlainText(resp.Result)
	if err != nil {
		l.logger.Warn("intake: render reply failed, sending raw", "group", group.Folder, "err", err)
		plain = resp.Result
	}
	reply := l.profile.AssistantName + ": " + plain
	if err := l.sender.Send(ctx, group.JID, reply); err != nil {
		return false, errors.Wrap(err, "intake: send reply failed")
	}
	return true, nil
}

// ingestURLs fires one goroutine per URL found in content; failures are
// logged, never propagated (step 3).
func (l *Loop) ingestURLs(groupFolder, content string) {
	if l.kbIngester == nil {
		return
	}
	for _, u := range ExtractURLs(content) {
		u := u
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
			defer cancel()
			if err := l.kbIngester.IngestURL(ctx, groupFolder, u); err != nil {
				l.logger.Warn("intake: fire-and-forget KB ingest failed", "group", groupFolder, "url", u, "err", err)
			}
		}()
	}
}

// knowledgeBasePrepend implements step 5: a question gets a best-effort
// KB search prepended. Any search failure is logged, never raised.
func (l *Loop) knowledgeBasePrepend(ctx context.Context, group *store.RegisteredGroup, content string) string {
	if l.kbSearcher == nil || !looksLikeQuestion(content) {
		return ""
	}
	query := StripTrigger(content, group.Trigger)
	hits, err := l.kbSearcher.Search(ctx, group.Folder, query, kbSearchLimit)
	if err != nil {
		l.logger.Warn("intake: KB search failed", "group", group.Folder, "err", err)
		return ""
	}
	return BuildKnowledgeBaseBlock(hits)
}
