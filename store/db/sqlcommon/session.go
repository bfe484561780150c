package sqlcommon

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

func (d *DB) GetSession(ctx context.Context, groupFolder string) (*store.Session, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT group_folder, session_id, updated_at FROM session WHERE group_folder = `+d.Dialect.Placeholder(1), groupFolder)
	s := &store.Session{}
	if err := row.Scan(&s.GroupFolder, &s.SessionID, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "get session")
	}
	return s, nil
}

func (d *DB) SetSession(ctx context.Context, groupFolder, sessionID string, updatedAt int64) (*store.Session, error) {
	q := `INSERT INTO session (group_folder, session_id, updated_at) VALUES (` +
		d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `)
		ON CONFLICT (group_folder) DO UPDATE SET session_id = excluded.session_id, updated_at = excluded.updated_at`
	if _, err := d.SQL.ExecContext(ctx, q, groupFolder, sessionID, updatedAt); err != nil {
		return nil, errors.Wrap(err, "set session")
	}
	return &store.Session{GroupFolder: groupFolder, SessionID: sessionID, UpdatedAt: updatedAt}, nil
}
