// Package render normalizes Markdown the sandboxed agent emits (and KB
// content rendered back to a chat) into transport-safe plain text, since
// the chat transport accepts text, not HTML.
package render

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

var md = goldmark.New()

// ToPlainText renders markdown to HTML via goldmark, then strips tags,
// collapsing the result to the plain text a chat transport can carry.
func ToPlainText(markdown string) (string, error) {
	var htmlBuf bytes.Buffer
	if err := md.Convert([]byte(markdown), &htmlBuf); err != nil {
		return "", errors.Wrap(err, "render: convert markdown")
	}

	doc, err := html.Parse(strings.NewReader(htmlBuf.String()))
	if err != nil {
		return "", errors.Wrap(err, "render: parse rendered html")
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(collapseBlankLines(sb.String())), nil
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "blockquote", "pre":
		return true
	default:
		return false
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
