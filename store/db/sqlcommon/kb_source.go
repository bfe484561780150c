package sqlcommon

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

const kbSourceSelect = `SELECT id, group_folder, url, title, source_type, raw_content, content_hash, tags, created_at, updated_at FROM kb_source`

func (d *DB) CreateKBSource(ctx context.Context, create *store.CreateKBSource) (*store.KBSource, error) {
	tags, err := json.Marshal(create.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "marshal tags")
	}
	q := `INSERT INTO kb_source (id, group_folder, url, title, source_type, raw_content, content_hash, tags, created_at, updated_at)
		VALUES (` + d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `, ` +
		d.Dialect.Placeholder(4) + `, ` + d.Dialect.Placeholder(5) + `, ` + d.Dialect.Placeholder(6) + `, ` +
		d.Dialect.Placeholder(7) + `, ` + d.Dialect.Placeholder(8) + `, ` + d.Dialect.Placeholder(9) + `, ` + d.Dialect.Placeholder(10) + `)`
	if _, err := d.SQL.ExecContext(ctx, q, create.ID, create.GroupFolder, create.URL, create.Title,
		string(create.SourceType), create.RawContent, create.ContentHash, string(tags), create.CreatedAt, create.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "create kb source")
	}
	return &store.KBSource{
		ID: create.ID, GroupFolder: create.GroupFolder, URL: create.URL, Title: create.Title,
		SourceType: create.SourceType, RawContent: create.RawContent, ContentHash: create.ContentHash,
		Tags: create.Tags, CreatedAt: create.CreatedAt, UpdatedAt: create.UpdatedAt,
	}, nil
}

func (d *DB) GetKBSource(ctx context.Context, find *store.FindKBSource) (*store.KBSource, error) {
	q, args, err := buildKBSourceFind(d.Dialect, find)
	if err != nil {
		return nil, err
	}
	row := d.SQL.QueryRowContext(ctx, q, args...)
	s, err := scanKBSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return s, err
}

func (d *DB) ListKBSources(ctx context.Context, find *store.FindKBSource) ([]*store.KBSource, error) {
	q, args, err := buildKBSourceFind(d.Dialect, find)
	if err != nil {
		return nil, err
	}
	rows, err := d.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list kb sources")
	}
	defer rows.Close()

	var out []*store.KBSource
	for rows.Next() {
		s, err := scanKBSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func buildKBSourceFind(dialect Dialect, find *store.FindKBSource) (string, []any, error) {
	q := kbSourceSelect
	var conds []string
	var args []any
	pos := 1
	if find != nil {
		if find.ID != nil {
			conds = append(conds, fmt.Sprintf("id = %s", dialect.Placeholder(pos)))
			args = append(args, *find.ID)
			pos++
		}
		if find.GroupFolder != nil {
			conds = append(conds, fmt.Sprintf("group_folder = %s", dialect.Placeholder(pos)))
			args = append(args, *find.GroupFolder)
			pos++
		}
		if find.URL != nil {
			conds = append(conds, fmt.Sprintf("url = %s", dialect.Placeholder(pos)))
			args = append(args, *find.URL)
			pos++
		}
		if find.ContentHash != nil {
			conds = append(conds, fmt.Sprintf("content_hash = %s", dialect.Placeholder(pos)))
			args = append(args, *find.ContentHash)
			pos++
		}
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY created_at DESC"
	return q, args, nil
}

func (d *DB) UpdateKBSource(ctx context.Context, update *store.UpdateKBSource) (*store.KBSource, error) {
	var sets []string
	var args []any
	pos := 1
	if update.Title != nil {
		sets = append(sets, fmt.Sprintf("title = %s", d.Dialect.Placeholder(pos)))
		args = append(args, *update.Title)
		pos++
	}
	if update.RawContent != nil {
		sets = append(sets, fmt.Sprintf("raw_content = %s", d.Dialect.Placeholder(pos)))
		args = append(args, *update.RawContent)
		pos++
	}
	if update.ContentHash != nil {
		sets = append(sets, fmt.Sprintf("content_hash = %s", d.Dialect.Placeholder(pos)))
		args = append(args, *update.ContentHash)
		pos++
	}
	if update.Tags != nil {
		tags, err := json.Marshal(update.Tags)
		if err != nil {
			return nil, errors.Wrap(err, "marshal tags")
		}
		sets = append(sets, fmt.Sprintf("tags = %s", d.Dialect.Placeholder(pos)))
		args = append(args, string(tags))
		pos++
	}
	sets = append(sets, fmt.Sprintf("updated_at = %s", d.Dialect.Placeholder(pos)))
	args = append(args, update.UpdatedAt)
	pos++

	q := "UPDATE kb_source SET "
	for i, s := range sets {
		if i > 0 {
			q += ", "
		}
		q += s
	}
	q += fmt.Sprintf(" WHERE id = %s", d.Dialect.Placeholder(pos))
	args = append(args, update.ID)

	if _, err := d.SQL.ExecContext(ctx, q, args...); err != nil {
		return nil, errors.Wrap(err, "update kb source")
	}
	id := update.ID
	return d.GetKBSource(ctx, &store.FindKBSource{ID: &id})
}

func (d *DB) DeleteKBSource(ctx context.Context, id string) error {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin delete kb source")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_chunk WHERE source_id = `+d.Dialect.Placeholder(1), id); err != nil {
		return errors.Wrap(err, "delete kb chunks")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_source WHERE id = `+d.Dialect.Placeholder(1), id); err != nil {
		return errors.Wrap(err, "delete kb source")
	}
	return errors.Wrap(tx.Commit(), "commit delete kb source")
}

func scanKBSource(row rowScanner) (*store.KBSource, error) {
	s := &store.KBSource{}
	var sType, tags string
	if err := row.Scan(&s.ID, &s.GroupFolder, &s.URL, &s.Title, &sType, &s.RawContent, &s.ContentHash, &tags, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "scan kb source")
	}
	s.SourceType = store.SourceType(sType)
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
			return nil, errors.Wrap(err, "unmarshal tags")
		}
	}
	return s, nil
}
