// Package storetest provides an in-memory store.Driver for tests that need
// a real Store facade without a sqlite/postgres backend.
package storetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hrygo/chatrouter/store"
)

// NewMemDriver returns a fresh in-memory driver suitable for one test.
func NewMemDriver() store.Driver {
	return &memDriver{
		chats:     map[string]*store.Chat{},
		groups:    map[string]*store.RegisteredGroup{},
		sessions:  map[string]*store.Session{},
		tasks:     map[string]*store.Task{},
		kbSources: map[string]*store.KBSource{},
		kbChunks:  map[string][]*store.KBChunk{},
	}
}

type memDriver struct {
	mu sync.Mutex

	chats    map[string]*store.Chat
	messages []*store.Message

	groups   map[string]*store.RegisteredGroup
	sessions map[string]*store.Session

	tasks map[string]*store.Task

	kbSources map[string]*store.KBSource
	kbChunks  map[string][]*store.KBChunk

	lastGroupSync int64
}

func (d *memDriver) Close() error { return nil }

func (d *memDriver) UpsertChat(ctx context.Context, upsert *store.UpsertChat) (*store.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &store.Chat{JID: upsert.JID, DisplayName: upsert.DisplayName, LastMessageTime: upsert.LastMessageTime}
	d.chats[upsert.JID] = c
	return c, nil
}

func (d *memDriver) ListChats(ctx context.Context, find *store.FindChat) ([]*store.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*store.Chat, 0, len(d.chats))
	for _, c := range d.chats {
		out = append(out, c)
	}
	return out, nil
}

func (d *memDriver) GetChat(ctx context.Context, jid string) (*store.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[jid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (d *memDriver) StoreMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := create.ID
	if id == "" {
		id = uuid.NewString()
	}
	m := &store.Message{
		ID:            id,
		ChatJID:       create.ChatJID,
		SenderName:    create.SenderName,
		FromAssistant: create.FromAssistant,
		Content:       create.Content,
		Timestamp:     create.Timestamp,
	}
	d.messages = append(d.messages, m)
	return m, nil
}

func (d *memDriver) GetNewMessages(ctx context.Context, registeredJIDs []string, sinceTS int64, botPrefixes []string) ([]*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	allowed := map[string]bool{}
	for _, j := range registeredJIDs {
		allowed[j] = true
	}
	var out []*store.Message
	for _, m := range d.messages {
		if m.Timestamp <= sinceTS || !allowed[m.ChatJID] {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (d *memDriver) GetMessagesSince(ctx context.Context, jid string, sinceTS int64, botPrefixes []string) ([]*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.Message
	for _, m := range d.messages {
		if m.ChatJID == jid && m.Timestamp > sinceTS {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *memDriver) RegisterGroup(ctx context.Context, create *store.CreateGroup) (*store.RegisteredGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := &store.RegisteredGroup{
		JID: create.JID, Name: create.Name, Folder: create.Folder, Trigger: create.Trigger,
		AddedAt: create.AddedAt, ExtraMounts: create.ExtraMounts, AdmissionRule: create.AdmissionRule,
	}
	d.groups[create.Folder] = g
	return g, nil
}

func (d *memDriver) ListGroups(ctx context.Context) ([]*store.RegisteredGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*store.RegisteredGroup, 0, len(d.groups))
	for _, g := range d.groups {
		out = append(out, g)
	}
	return out, nil
}

func (d *memDriver) GetGroup(ctx context.Context, find *store.FindGroup) (*store.RegisteredGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if find.Folder != nil {
		if g, ok := d.groups[*find.Folder]; ok {
			return g, nil
		}
		return nil, store.ErrNotFound
	}
	if find.JID != nil {
		for _, g := range d.groups {
			if g.JID == *find.JID {
				return g, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (d *memDriver) GetSession(ctx context.Context, groupFolder string) (*store.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[groupFolder]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (d *memDriver) SetSession(ctx context.Context, groupFolder, sessionID string, updatedAt int64) (*store.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &store.Session{GroupFolder: groupFolder, SessionID: sessionID, UpdatedAt: updatedAt}
	d.sessions[groupFolder] = s
	return s, nil
}

func (d *memDriver) CreateTask(ctx context.Context, create *store.CreateTask) (*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := create.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := &store.Task{
		ID: id, GroupFolder: create.GroupFolder, ChatJID: create.ChatJID, Prompt: create.Prompt,
		ScheduleType: create.ScheduleType, ScheduleValue: create.ScheduleValue, ContextMode: create.ContextMode,
		Status: store.TaskActive, CreatedAt: create.CreatedAt, NextRun: create.NextRun,
	}
	d.tasks[t.ID] = t
	return t, nil
}

func (d *memDriver) GetTask(ctx context.Context, id string) (*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (d *memDriver) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.Task
	for _, t := range d.tasks {
		if find != nil {
			if find.GroupFolder != nil && t.GroupFolder != *find.GroupFolder {
				continue
			}
			if find.Status != nil && t.Status != *find.Status {
				continue
			}
			if find.DueBefore != nil && t.NextRun > *find.DueBefore {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *memDriver) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tasks[update.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Status != nil {
		t.Status = *update.Status
	}
	if update.NextRun != nil {
		t.NextRun = *update.NextRun
	}
	return t, nil
}

func (d *memDriver) DeleteTask(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.tasks, id)
	return nil
}

func (d *memDriver) CreateKBSource(ctx context.Context, create *store.CreateKBSource) (*store.KBSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := create.ID
	if id == "" {
		id = uuid.NewString()
	}
	s := &store.KBSource{
		ID: id, GroupFolder: create.GroupFolder, URL: create.URL, SourceType: create.SourceType,
		Title: create.Title, RawContent: create.RawContent, ContentHash: create.ContentHash,
		Tags: create.Tags, CreatedAt: create.CreatedAt, UpdatedAt: create.UpdatedAt,
	}
	d.kbSources[s.ID] = s
	return s, nil
}

func (d *memDriver) GetKBSource(ctx context.Context, find *store.FindKBSource) (*store.KBSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if find.ID != nil {
		if s, ok := d.kbSources[*find.ID]; ok {
			return s, nil
		}
		return nil, store.ErrNotFound
	}
	for _, s := range d.kbSources {
		if find.GroupFolder != nil && s.GroupFolder != *find.GroupFolder {
			continue
		}
		if find.URL != nil && s.URL == *find.URL {
			return s, nil
		}
		if find.ContentHash != nil && s.ContentHash == *find.ContentHash {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *memDriver) ListKBSources(ctx context.Context, find *store.FindKBSource) ([]*store.KBSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.KBSource
	for _, s := range d.kbSources {
		if find != nil && find.GroupFolder != nil && s.GroupFolder != *find.GroupFolder {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *memDriver) UpdateKBSource(ctx context.Context, update *store.UpdateKBSource) (*store.KBSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.kbSources[update.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.RawContent != nil {
		s.RawContent = *update.RawContent
	}
	if update.Tags != nil {
		s.Tags = update.Tags
	}
	if update.ContentHash != nil {
		s.ContentHash = *update.ContentHash
	}
	s.UpdatedAt = update.UpdatedAt
	return s, nil
}

func (d *memDriver) DeleteKBSource(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.kbSources[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.kbSources, id)
	delete(d.kbChunks, id)
	return nil
}

func (d *memDriver) ReplaceKBChunks(ctx context.Context, sourceID string, chunks []*store.CreateKBChunk) ([]*store.KBChunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*store.KBChunk, 0, len(chunks))
	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, &store.KBChunk{
			ID: id, SourceID: sourceID, ChunkIndex: c.ChunkIndex, Content: c.Content,
			Embedding: c.Embedding, EmbeddingDim: len(c.Embedding), EmbeddingProvider: c.EmbeddingProvider,
			EmbeddingModel: c.EmbeddingModel, CreatedAt: c.CreatedAt,
		})
	}
	d.kbChunks[sourceID] = out
	return out, nil
}

func (d *memDriver) ListKBChunks(ctx context.Context, find *store.FindKBChunk) ([]*store.KBChunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.KBChunk
	if find != nil && find.SourceID != nil {
		out = append(out, d.kbChunks[*find.SourceID]...)
		return out, nil
	}
	for _, chunks := range d.kbChunks {
		out = append(out, chunks...)
	}
	return out, nil
}

func (d *memDriver) GetLastGroupSync(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastGroupSync, nil
}

func (d *memDriver) SetLastGroupSync(ctx context.Context, ts int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastGroupSync = ts
	return nil
}
