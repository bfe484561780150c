package intake

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/chatrouter/store"
)

// BuildContextWindow renders messages as the agent prompt's XML context
// window: each message XML-escaped and wrapped in
// <message sender="…" time="…">…</message>, all inside <messages>…</messages>.
// Messages from the assistant itself are excluded.
func BuildContextWindow(messages []*store.Message) string {
	var sb strings.Builder
	sb.WriteString("<messages>\n")
	for _, m := range messages {
		if m.FromAssistant {
			continue
		}
		sb.WriteString("  <message sender=\"")
		xml.EscapeText(&sb, []byte(m.SenderName))
		sb.WriteString("\" time=\"")
		sb.WriteString(strconv.FormatInt(m.Timestamp, 10))
		sb.WriteString("\">")
		xml.EscapeText(&sb, []byte(m.Content))
		sb.WriteString("</message>\n")
	}
	sb.WriteString("</messages>")
	return sb.String()
}

// BuildKnowledgeBaseBlock wraps KB search hits in a <knowledge_base>…</knowledge_base>
// block, prepended to the prompt when the triggering message looks like a
// question and the search returned results.
func BuildKnowledgeBaseBlock(hits []KBSearchHit) string {
	if len(hits) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<knowledge_base>\n")
	for _, h := range hits {
		sb.WriteString("  <source title=\"")
		xml.EscapeText(&sb, []byte(h.Title))
		sb.WriteString("\">")
		xml.EscapeText(&sb, []byte(h.Content))
		sb.WriteString("</source>\n")
	}
	sb.WriteString("</knowledge_base>")
	return sb.String()
}

// isoTime renders a unix-millis timestamp as RFC3339, for log context.
func isoTime(unixMillis int64) string {
	return time.UnixMilli(unixMillis).UTC().Format(time.RFC3339)
}
