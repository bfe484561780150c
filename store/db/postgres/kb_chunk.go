package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// ReplaceKBChunks deletes a source's existing chunks and inserts the
// replacement set atomically, storing embeddings as native pgvector
// columns so similarity search can be pushed to the `<=>` operator.
func (d *Driver) ReplaceKBChunks(ctx context.Context, sourceID string, chunks []*store.CreateKBChunk) ([]*store.KBChunk, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin replace kb chunks")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_chunk WHERE source_id = $1`, sourceID); err != nil {
		return nil, errors.Wrap(err, "delete old kb chunks")
	}

	out := make([]*store.KBChunk, 0, len(chunks))
	for _, c := range chunks {
		var vec any
		if len(c.Embedding) > 0 {
			vec = pgvector.NewVector(c.Embedding)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO kb_chunk
			(id, source_id, chunk_index, content, embedding, embedding_dim, embedding_provider, embedding_model, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, sourceID, c.ChunkIndex, c.Content, vec, len(c.Embedding), c.EmbeddingProvider, c.EmbeddingModel, c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "insert kb chunk")
		}
		out = append(out, &store.KBChunk{
			ID: c.ID, SourceID: sourceID, ChunkIndex: c.ChunkIndex, Content: c.Content,
			Embedding: c.Embedding, EmbeddingDim: len(c.Embedding),
			EmbeddingProvider: c.EmbeddingProvider, EmbeddingModel: c.EmbeddingModel, CreatedAt: c.CreatedAt,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit replace kb chunks")
	}
	return out, nil
}

func (d *Driver) ListKBChunks(ctx context.Context, find *store.FindKBChunk) ([]*store.KBChunk, error) {
	q := `SELECT c.id, c.source_id, c.chunk_index, c.content, c.embedding, c.embedding_dim, c.embedding_provider, c.embedding_model, c.created_at
		FROM kb_chunk c`
	var conds []string
	var args []any
	pos := 1
	if find != nil && find.GroupFolder != nil {
		q += ` JOIN kb_source s ON s.id = c.source_id`
		conds = append(conds, fmt.Sprintf("s.group_folder = $%d", pos))
		args = append(args, *find.GroupFolder)
		pos++
	}
	if find != nil && find.SourceID != nil {
		conds = append(conds, fmt.Sprintf("c.source_id = $%d", pos))
		args = append(args, *find.SourceID)
		pos++
	}
	if find != nil && find.HasEmbedding != nil {
		if *find.HasEmbedding {
			conds = append(conds, "c.embedding IS NOT NULL")
		} else {
			conds = append(conds, "c.embedding IS NULL")
		}
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY c.source_id, c.chunk_index"

	rows, err := d.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list kb chunks")
	}
	defer rows.Close()

	var out []*store.KBChunk
	for rows.Next() {
		k := &store.KBChunk{}
		var vec pgvector.Vector
		if err := rows.Scan(&k.ID, &k.SourceID, &k.ChunkIndex, &k.Content, &vec, &k.EmbeddingDim, &k.EmbeddingProvider, &k.EmbeddingModel, &k.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan kb chunk")
		}
		if slice := vec.Slice(); len(slice) > 0 {
			k.Embedding = slice
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
