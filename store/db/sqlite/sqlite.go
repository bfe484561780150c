// Package sqlite is the primary, embedded storage backend: a single
// modernc.org/sqlite (cgo-free) database file per process, with
// tmp-then-rename snapshot files living alongside it (see internal/ipcbroker).
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/db/sqlcommon"
)

// Driver implements store.Driver over SQLite. CRUD for chat/message/
// group/session/task/kb_source is shared with postgres via sqlcommon;
// only embedding storage (packed float32 blob here, pgvector column
// there) is backend-specific.
type Driver struct {
	*sqlcommon.DB
}

// New opens (and migrates) the SQLite database at dsn.
func New(ctx context.Context, dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("sqlite: dsn required")
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite db %q", dsn)
	}
	sqlDB.SetMaxOpenConns(1) // one connection: every query, read or write, is serialized through it (single-writer discipline)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			return nil, errors.Wrapf(err, "set pragma %q", p)
		}
	}

	if err := applySchema(ctx, sqlDB); err != nil {
		return nil, err
	}

	return &Driver{DB: sqlcommon.New(sqlDB, sqlcommon.DialectSQLite)}, nil
}
