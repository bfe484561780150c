package intake

import "regexp"

// urlPattern is a generic HTTP(S) URL matcher, intentionally permissive:
// false positives are harmless (the KB pipeline's own normalize/fetch
// step rejects anything that isn't fetchable).
var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractURLs returns every URL-looking substring in content, in order of
// appearance.
func ExtractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}
