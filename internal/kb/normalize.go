package kb

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are stripped during URL normalization (step 2). Not
// exhaustive, but covers the common ad/referrer trackers.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "utm_id": true,
	"gclid": true, "fbclid": true, "igshid": true, "ref": true, "ref_src": true,
}

// NormalizeURL lowercases scheme/host, strips tracking params, and trims a
// trailing slash, so the same resource ingested under a tracking link and
// a clean link dedupes to one URL.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[strings.ToLower(key)] {
				q.Del(key)
			}
		}
		u.RawQuery = sortedQuery(q)
	}

	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

func sortedQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String()
}

// DetectSourceType pattern-matches a normalized URL to a SourceType,
// falling back to SourceArticle when nothing more specific matches
// (step 4). Callers may override with an explicit type.
func DetectSourceType(normalizedURL string) string {
	lower := strings.ToLower(normalizedURL)
	switch {
	case strings.Contains(lower, "twitter.com/") || strings.Contains(lower, "x.com/"):
		return "tweet"
	case strings.Contains(lower, "youtube.com/watch") || strings.Contains(lower, "youtu.be/") || strings.Contains(lower, "vimeo.com/"):
		return "video"
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	default:
		return "article"
	}
}
