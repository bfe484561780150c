package kb

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

const articleFetchTimeout = 20 * time.Second

// skippedTags never contribute to extracted text; their contents are
// markup/behavior, not article prose.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "nav": true,
	"footer": true, "header": true, "svg": true, "form": true,
}

type articleExtractor struct {
	client *http.Client
}

func newArticleExtractor() Extractor {
	return &articleExtractor{client: &http.Client{Timeout: articleFetchTimeout}}
}

func (e *articleExtractor) Extract(ctx context.Context, _ string, url string) (*Extracted, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "kb: build article request")
	}
	req.Header.Set("User-Agent", "chatrouter-kb/1.0 (+article ingest)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "kb: fetch article")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrExtractionFailed, "article fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, errors.Wrap(err, "kb: read article body")
	}

	title, content, err := extractHTMLText(string(body))
	if err != nil {
		return nil, errors.Wrap(err, "kb: parse article html")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(ErrExtractionFailed, "article had no extractable text")
	}

	return &Extracted{Title: title, Content: content}, nil
}

// extractHTMLText walks the parsed DOM, collecting the <title> text and
// the visible text of every non-markup node.
func extractHTMLText(body string) (title, content string, err error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, sb.String(), nil
}
