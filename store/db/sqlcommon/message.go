package sqlcommon

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

func (d *DB) StoreMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error) {
	q := `INSERT INTO message (id, chat_jid, sender_name, from_assistant, content, timestamp)
		VALUES (` + d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `, ` +
		d.Dialect.Placeholder(4) + `, ` + d.Dialect.Placeholder(5) + `, ` + d.Dialect.Placeholder(6) + `)`
	if _, err := d.SQL.ExecContext(ctx, q, create.ID, create.ChatJID, create.SenderName, create.FromAssistant, create.Content, create.Timestamp); err != nil {
		return nil, errors.Wrap(err, "store message")
	}
	return &store.Message{
		ID: create.ID, ChatJID: create.ChatJID, SenderName: create.SenderName,
		FromAssistant: create.FromAssistant, Content: create.Content, Timestamp: create.Timestamp,
	}, nil
}

// GetNewMessages returns messages strictly after sinceTS for any of the
// registered JIDs, excluding messages sent by any of the bot prefixes
// (the self-loop guard) so the router never reacts to its own replies.
func (d *DB) GetNewMessages(ctx context.Context, registeredJIDs []string, sinceTS int64, botPrefixes []string) ([]*store.Message, error) {
	if len(registeredJIDs) == 0 {
		return nil, nil
	}
	pos := 1
	jidClause, pos := d.inClause(pos, len(registeredJIDs))
	tsPlaceholder := d.Dialect.Placeholder(pos)
	pos++
	botClause, pos := d.inClause(pos, len(botPrefixes))

	q := `SELECT id, chat_jid, sender_name, from_assistant, content, timestamp FROM message
		WHERE chat_jid IN ` + jidClause + ` AND timestamp > ` + tsPlaceholder
	if len(botPrefixes) > 0 {
		q += ` AND sender_name NOT IN ` + botClause
	}
	q += ` ORDER BY timestamp ASC`

	args := make([]any, 0, len(registeredJIDs)+1+len(botPrefixes))
	for _, j := range registeredJIDs {
		args = append(args, j)
	}
	args = append(args, sinceTS)
	for _, b := range botPrefixes {
		args = append(args, b)
	}

	return d.scanMessages(ctx, q, args...)
}

func (d *DB) GetMessagesSince(ctx context.Context, jid string, sinceTS int64, botPrefixes []string) ([]*store.Message, error) {
	pos := 1
	jidPh := d.Dialect.Placeholder(pos)
	pos++
	tsPh := d.Dialect.Placeholder(pos)
	pos++
	botClause, _ := d.inClause(pos, len(botPrefixes))

	q := `SELECT id, chat_jid, sender_name, from_assistant, content, timestamp FROM message
		WHERE chat_jid = ` + jidPh + ` AND timestamp > ` + tsPh
	if len(botPrefixes) > 0 {
		q += ` AND sender_name NOT IN ` + botClause
	}
	q += ` ORDER BY timestamp ASC`

	args := []any{jid, sinceTS}
	for _, b := range botPrefixes {
		args = append(args, b)
	}
	return d.scanMessages(ctx, q, args...)
}

func (d *DB) scanMessages(ctx context.Context, q string, args ...any) ([]*store.Message, error) {
	rows, err := d.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	defer rows.Close()

	var out []*store.Message
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.ChatJID, &m.SenderName, &m.FromAssistant, &m.Content, &m.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
