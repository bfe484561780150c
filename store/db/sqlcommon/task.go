package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.CreateTask) (*store.Task, error) {
	q := `INSERT INTO task (id, group_folder, chat_jid, prompt, schedule_type, schedule_value, context_mode, next_run, status, created_at)
		VALUES (` + d.Dialect.Placeholder(1) + `, ` + d.Dialect.Placeholder(2) + `, ` + d.Dialect.Placeholder(3) + `, ` +
		d.Dialect.Placeholder(4) + `, ` + d.Dialect.Placeholder(5) + `, ` + d.Dialect.Placeholder(6) + `, ` +
		d.Dialect.Placeholder(7) + `, ` + d.Dialect.Placeholder(8) + `, ` + d.Dialect.Placeholder(9) + `, ` + d.Dialect.Placeholder(10) + `)`
	if _, err := d.SQL.ExecContext(ctx, q, create.ID, create.GroupFolder, create.ChatJID, create.Prompt,
		string(create.ScheduleType), create.ScheduleValue, string(create.ContextMode), create.NextRun, string(store.TaskActive), create.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "create task")
	}
	return &store.Task{
		ID: create.ID, GroupFolder: create.GroupFolder, ChatJID: create.ChatJID, Prompt: create.Prompt,
		ScheduleType: create.ScheduleType, ScheduleValue: create.ScheduleValue, ContextMode: create.ContextMode,
		NextRun: create.NextRun, Status: store.TaskActive, CreatedAt: create.CreatedAt,
	}, nil
}

func (d *DB) GetTask(ctx context.Context, id string) (*store.Task, error) {
	row := d.SQL.QueryRowContext(ctx, taskSelect+` WHERE id = `+d.Dialect.Placeholder(1), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return t, err
}

const taskSelect = `SELECT id, group_folder, chat_jid, prompt, schedule_type, schedule_value, context_mode, next_run, status, created_at FROM task`

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	q := taskSelect
	var conds []string
	var args []any
	pos := 1
	if find != nil {
		if find.ID != nil {
			conds = append(conds, fmt.Sprintf("id = %s", d.Dialect.Placeholder(pos)))
			args = append(args, *find.ID)
			pos++
		}
		if find.GroupFolder != nil {
			conds = append(conds, fmt.Sprintf("group_folder = %s", d.Dialect.Placeholder(pos)))
			args = append(args, *find.GroupFolder)
			pos++
		}
		if find.Status != nil {
			conds = append(conds, fmt.Sprintf("status = %s", d.Dialect.Placeholder(pos)))
			args = append(args, string(*find.Status))
			pos++
		}
		if find.DueBefore != nil {
			conds = append(conds, fmt.Sprintf("next_run <= %s AND status = '%s'", d.Dialect.Placeholder(pos), store.TaskActive))
			args = append(args, *find.DueBefore)
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
	q += " ORDER BY next_run ASC"

	rows, err := d.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	defer rows.Close()

	var out []*store.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	var sets []string
	var args []any
	pos := 1
	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = %s", d.Dialect.Placeholder(pos)))
		args = append(args, string(*update.Status))
		pos++
	}
	if update.NextRun != nil {
		sets = append(sets, fmt.Sprintf("next_run = %s", d.Dialect.Placeholder(pos)))
		args = append(args, *update.NextRun)
		pos++
	}
	if len(sets) == 0 {
		return d.GetTask(ctx, update.ID)
	}
	q := "UPDATE task SET "
	for i, s := range sets {
		if i > 0 {
			q += ", "
		}
		q += s
	}
	q += fmt.Sprintf(" WHERE id = %s", d.Dialect.Placeholder(pos))
	args = append(args, update.ID)

	if _, err := d.SQL.ExecContext(ctx, q, args...); err != nil {
		return nil, errors.Wrap(err, "update task")
	}
	return d.GetTask(ctx, update.ID)
}

func (d *DB) DeleteTask(ctx context.Context, id string) error {
	_, err := d.SQL.ExecContext(ctx, `DELETE FROM task WHERE id = `+d.Dialect.Placeholder(1), id)
	return errors.Wrap(err, "delete task")
}

func scanTask(row rowScanner) (*store.Task, error) {
	t := &store.Task{}
	var sType, cMode, status string
	if err := row.Scan(&t.ID, &t.GroupFolder, &t.ChatJID, &t.Prompt, &sType, &t.ScheduleValue, &cMode, &t.NextRun, &status, &t.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "scan task")
	}
	t.ScheduleType = store.ScheduleType(sType)
	t.ContextMode = store.ContextMode(cMode)
	t.Status = store.TaskStatus(status)
	return t, nil
}
