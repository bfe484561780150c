package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS chat (
	jid TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	last_message_time BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS message (
	id TEXT PRIMARY KEY,
	chat_jid TEXT NOT NULL REFERENCES chat(jid),
	sender_name TEXT NOT NULL DEFAULT '',
	from_assistant BOOLEAN NOT NULL DEFAULT FALSE,
	content TEXT NOT NULL DEFAULT '',
	timestamp BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_message_chat_ts ON message(chat_jid, timestamp);

CREATE TABLE IF NOT EXISTS registered_group (
	jid TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	folder TEXT NOT NULL UNIQUE,
	trigger TEXT NOT NULL DEFAULT '',
	added_at BIGINT NOT NULL,
	extra_mounts TEXT NOT NULL DEFAULT '[]',
	admission_rule TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS session (
	group_folder TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS task (
	id TEXT PRIMARY KEY,
	group_folder TEXT NOT NULL,
	chat_jid TEXT NOT NULL,
	prompt TEXT NOT NULL,
	schedule_type TEXT NOT NULL,
	schedule_value TEXT NOT NULL,
	context_mode TEXT NOT NULL,
	next_run BIGINT NOT NULL,
	status TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_status_next_run ON task(status, next_run);

CREATE TABLE IF NOT EXISTS kb_source (
	id TEXT PRIMARY KEY,
	group_folder TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	source_type TEXT NOT NULL,
	raw_content TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE (group_folder, content_hash)
);
-- url is unique within a group only "if any" (spec §3): an empty url
-- means a text source with no URL, and a group may hold many of those.
CREATE UNIQUE INDEX IF NOT EXISTS idx_kb_source_group_url ON kb_source(group_folder, url) WHERE url != '';

-- Embedding dimension is fixed per deployment at 1536; internal/kb/embed_openai.go
-- sets no default model, so the configured model must produce 1536-dim vectors.
CREATE TABLE IF NOT EXISTS kb_chunk (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES kb_source(id),
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding vector(1536),
	embedding_dim INTEGER NOT NULL DEFAULT 0,
	embedding_provider TEXT NOT NULL DEFAULT '',
	embedding_model TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kb_chunk_source ON kb_chunk(source_id);

CREATE TABLE IF NOT EXISTS router_meta (
	key TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return errors.Wrap(err, "apply postgres schema")
}
