package sqlcommon

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

func (d *DB) RegisterGroup(ctx context.Context, create *store.CreateGroup) (*store.RegisteredGroup, error) {
	mounts, err := json.Marshal(create.ExtraMounts)
	if err != nil {
		return nil, errors.Wrap(err, "marshal extra mounts")
	}
	q := `INSERT INTO registered_group (jid, name, folder, trigger, added_at, extra_mounts, admission_rule)
		VALUES (` + d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `, ` +
		d.Dialect.Placeholder(4) + `, ` + d.Dialect.Placeholder(5) + `, ` + d.Dialect.Placeholder(6) + `, ` + d.Dialect.Placeholder(7) + `)`
	if _, err := d.SQL.ExecContext(ctx, q, create.JID, create.Name, create.Folder, create.Trigger, create.AddedAt, string(mounts), create.AdmissionRule); err != nil {
		return nil, errors.Wrap(err, "register group")
	}
	return &store.RegisteredGroup{
		JID: create.JID, Name: create.Name, Folder: create.Folder, Trigger: create.Trigger,
		AddedAt: create.AddedAt, ExtraMounts: create.ExtraMounts, AdmissionRule: create.AdmissionRule,
	}, nil
}

func (d *DB) ListGroups(ctx context.Context) ([]*store.RegisteredGroup, error) {
	rows, err := d.SQL.QueryContext(ctx, `SELECT jid, name, folder, trigger, added_at, extra_mounts, admission_rule FROM registered_group`)
	if err != nil {
		return nil, errors.Wrap(err, "list groups")
	}
	defer rows.Close()

	var out []*store.RegisteredGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (d *DB) GetGroup(ctx context.Context, find *store.FindGroup) (*store.RegisteredGroup, error) {
	q := `SELECT jid, name, folder, trigger, added_at, extra_mounts, admission_rule FROM registered_group WHERE `
	var arg string
	switch {
	case find != nil && find.Folder != nil:
		q += `folder = ` + d.Dialect.Placeholder(1)
		arg = *find.Folder
	case find != nil && find.JID != nil:
		q += `jid = ` + d.Dialect.Placeholder(1)
		arg = *find.JID
	default:
		return nil, errors.New("get group: find condition required")
	}

	row := d.SQL.QueryRowContext(ctx, q, arg)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return g, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*store.RegisteredGroup, error) {
	g := &store.RegisteredGroup{}
	var mounts string
	if err := row.Scan(&g.JID, &g.Name, &g.Folder, &g.Trigger, &g.AddedAt, &mounts, &g.AdmissionRule); err != nil {
		return nil, errors.Wrap(err, "scan group")
	}
	if mounts != "" {
		if err := json.Unmarshal([]byte(mounts), &g.ExtraMounts); err != nil {
			return nil, errors.Wrap(err, "unmarshal extra mounts")
		}
	}
	return g, nil
}
