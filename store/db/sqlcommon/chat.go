package sqlcommon

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

func (d *DB) UpsertChat(ctx context.Context, upsert *store.UpsertChat) (*store.Chat, error) {
	q := `INSERT INTO chat (jid, display_name, last_message_time) VALUES (` +
		d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `)
		ON CONFLICT (jid) DO UPDATE SET display_name = excluded.display_name, last_message_time = excluded.last_message_time`
	if _, err := d.SQL.ExecContext(ctx, q, upsert.JID, upsert.DisplayName, upsert.LastMessageTime); err != nil {
		return nil, errors.Wrap(err, "upsert chat")
	}
	return &store.Chat{JID: upsert.JID, DisplayName: upsert.DisplayName, LastMessageTime: upsert.LastMessageTime}, nil
}

func (d *DB) GetChat(ctx context.Context, jid string) (*store.Chat, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT jid, display_name, last_message_time FROM chat WHERE jid = `+d.Dialect.Placeholder(1), jid)
	c := &store.Chat{}
	if err := row.Scan(&c.JID, &c.DisplayName, &c.LastMessageTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "get chat")
	}
	return c, nil
}

func (d *DB) ListChats(ctx context.Context, find *store.FindChat) ([]*store.Chat, error) {
	q := `SELECT jid, display_name, last_message_time FROM chat`
	var args []any
	if find != nil && find.JID != nil {
		q += ` WHERE jid = ` + d.Dialect.Placeholder(1)
		args = append(args, *find.JID)
	}
	q += ` ORDER BY last_message_time DESC`
	rows, err := d.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	defer rows.Close()

	var out []*store.Chat
	for rows.Next() {
		c := &store.Chat{}
		if err := rows.Scan(&c.JID, &c.DisplayName, &c.LastMessageTime); err != nil {
			return nil, errors.Wrap(err, "scan chat")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
