package kb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// WriteFeed renders a group's most recently ingested sources as an Atom
// feed at <feedDir>/<groupFolder>.atom — an operator/agent convenience
// for seeing what's been ingested, refreshed after each successful
// ingest. Not part of any request/response path.
func WriteFeed(feedDir, groupFolder string, sources []*store.KBSource) error {
	feed := &feeds.Feed{
		Title:   "Knowledge base: " + groupFolder,
		Link:    &feeds.Link{Href: "file://" + filepath.Join(feedDir, groupFolder+".atom")},
		Created: time.Now(),
	}

	for _, s := range sources {
		link := s.URL
		if link == "" {
			link = "urn:kb-source:" + s.ID
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:      s.ID,
			Title:   firstNonEmpty(s.Title, s.ID),
			Link:    &feeds.Link{Href: link},
			Created: time.UnixMilli(s.CreatedAt),
			Updated: time.UnixMilli(s.UpdatedAt),
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return errors.Wrap(err, "kb: render atom feed")
	}

	if err := os.MkdirAll(feedDir, 0o755); err != nil {
		return errors.Wrap(err, "kb: create feed dir")
	}
	path := filepath.Join(feedDir, groupFolder+".atom")
	if err := os.WriteFile(path, []byte(atom), 0o644); err != nil {
		return errors.Wrap(err, "kb: write atom feed")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
