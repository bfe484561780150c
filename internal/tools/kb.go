package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/kb"
	"github.com/hrygo/chatrouter/store"
)

// resolveChatJID looks up the chat a group's replies go to, for handlers
// that need to send a result back rather than just mutate state.
func (d *Dispatcher) resolveChatJID(ctx context.Context, groupFolder string) (string, error) {
	group, err := d.store.GetGroup(ctx, &store.FindGroup{Folder: &groupFolder})
	if err != nil || group == nil {
		return "", errors.Wrap(ErrInvalidPayload, "unknown source group")
	}
	return group.JID, nil
}

type kbAddPayload struct {
	Type string   `json:"type"`
	URL  string   `json:"url"`
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

func (d *Dispatcher) handleKBAdd(ctx context.Context, raw []byte, sourceGroup string) error {
	if d.kb == nil {
		return errors.New("tools: no KB pipeline configured")
	}
	var p kbAddPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.URL == "" && p.Text == "" {
		return errors.Wrap(ErrInvalidPayload, "url or text required")
	}

	_, err := d.kb.Ingest(ctx, &kb.IngestOptions{
		GroupFolder: sourceGroup,
		URL:         p.URL,
		RawText:     p.Text,
		Tags:        p.Tags,
	})
	return err
}

type kbSearchPayload struct {
	Type  string `json:"type"`
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (d *Dispatcher) handleKBSearch(ctx context.Context, raw []byte, sourceGroup string) error {
	if d.kb == nil {
		return errors.New("tools: no KB pipeline configured")
	}
	var p kbSearchPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.Query == "" {
		return errors.Wrap(ErrInvalidPayload, "query required")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 5
	}

	hits, err := d.kb.SearchChunks(ctx, &kb.SearchOptions{
		Query: p.Query, GroupFolder: sourceGroup, Limit: limit, DedupeBySource: true,
	})
	if err != nil {
		return err
	}

	reply := "Knowledge base search found no results."
	if len(hits) > 0 {
		reply = formatSearchHits(hits)
	}

	chatJID, err := d.resolveChatJID(ctx, sourceGroup)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, chatJID, reply)
}

func formatSearchHits(hits []kb.SearchHit) string {
	out := ""
	for i, h := range hits {
		if i > 0 {
			out += "\n\n"
		}
		out += h.Title + "\n" + h.Content
	}
	return out
}

func (d *Dispatcher) handleKBList(ctx context.Context, raw []byte, sourceGroup string) error {
	if d.kb == nil {
		return errors.New("tools: no KB pipeline configured")
	}
	sources, err := d.kb.ListSources(ctx, sourceGroup)
	if err != nil {
		return err
	}

	reply := "No knowledge base sources yet."
	if len(sources) > 0 {
		reply = ""
		for i, s := range sources {
			if i > 0 {
				reply += "\n"
			}
			reply += s.ID + ": " + s.Title
		}
	}

	chatJID, err := d.resolveChatJID(ctx, sourceGroup)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, chatJID, reply)
}

type kbUpdatePayload struct {
	Type     string   `json:"type"`
	SourceID string   `json:"source_id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
}

func (d *Dispatcher) handleKBUpdate(ctx context.Context, raw []byte, sourceGroup string) error {
	if d.kb == nil {
		return errors.New("tools: no KB pipeline configured")
	}
	var p kbUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.SourceID == "" {
		return errors.Wrap(ErrInvalidPayload, "source_id required")
	}

	existing, err := d.kb.GetSource(ctx, p.SourceID)
	if err != nil || existing == nil {
		return errors.Wrap(ErrInvalidPayload, "unknown source_id")
	}
	if existing.GroupFolder != sourceGroup {
		return ErrUnauthorized
	}

	_, err = d.kb.Update(ctx, p.SourceID, p.Title, p.Text, p.Tags)
	if errors.Is(err, kb.ErrInvalidPayload) {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	return err
}

type kbDeletePayload struct {
	Type     string `json:"type"`
	SourceID string `json:"source_id"`
}

func (d *Dispatcher) handleKBDelete(ctx context.Context, raw []byte, sourceGroup string) error {
	if d.kb == nil {
		return errors.New("tools: no KB pipeline configured")
	}
	var p kbDeletePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.SourceID == "" {
		return errors.Wrap(ErrInvalidPayload, "source_id required")
	}

	existing, err := d.kb.GetSource(ctx, p.SourceID)
	if err != nil || existing == nil {
		return errors.Wrap(ErrInvalidPayload, "unknown source_id")
	}
	if existing.GroupFolder != sourceGroup {
		return ErrUnauthorized
	}

	return d.kb.Delete(ctx, p.SourceID)
}
