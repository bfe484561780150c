package intake

import (
	"regexp"
	"strings"
	"sync"
)

var (
	triggerCacheMu sync.Mutex
	triggerCache   = map[string]*regexp.Regexp{}
)

// triggerRegex returns a cached, case-insensitive, word-bounded regex
// matching trigger at the start of a message.
func triggerRegex(trigger string) *regexp.Regexp {
	triggerCacheMu.Lock()
	defer triggerCacheMu.Unlock()

	if re, ok := triggerCache[trigger]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(trigger) + `\b`)
	triggerCache[trigger] = re
	return re
}

// MatchesTrigger reports whether content starts with trigger, case
// insensitive and word-bounded, per spec.md §4.3 step 2.
func MatchesTrigger(content, trigger string) bool {
	if trigger == "" {
		return false
	}
	return triggerRegex(trigger).MatchString(content)
}

// StripTrigger removes a leading trigger word (and following whitespace)
// from content, for building a cleaner agent prompt.
func StripTrigger(content, trigger string) string {
	if !MatchesTrigger(content, trigger) {
		return content
	}
	rest := content[len(trigger):]
	return strings.TrimLeft(rest, " \t")
}

// looksLikeQuestion reports whether content should trigger a KB prepend:
// it ends with '?' or opens with a common interrogative word.
func looksLikeQuestion(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, word := range []string{"what", "why", "how", "who", "when", "where", "which", "can", "does", "is", "are"} {
		if strings.HasPrefix(lower, word+" ") {
			return true
		}
	}
	return false
}
