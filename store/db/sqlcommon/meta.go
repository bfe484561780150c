package sqlcommon

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

const lastGroupSyncKey = "last_group_sync"

func (d *DB) GetLastGroupSync(ctx context.Context) (int64, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT value FROM router_meta WHERE key = `+d.Dialect.Placeholder(1), lastGroupSyncKey)
	var v int64
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get last group sync")
	}
	return v, nil
}

func (d *DB) SetLastGroupSync(ctx context.Context, ts int64) error {
	q := `INSERT INTO router_meta (key, value) VALUES (` + d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	_, err := d.SQL.ExecContext(ctx, q, lastGroupSyncKey, ts)
	return errors.Wrap(err, "set last group sync")
}
