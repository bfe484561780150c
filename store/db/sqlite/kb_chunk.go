package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
)

// ReplaceKBChunks deletes a source's existing chunks and inserts the
// replacement set atomically, preserving the KBSource.CreatedAt guarantee
// (handled by the caller, which does not touch kb_source.created_at here).
func (d *Driver) ReplaceKBChunks(ctx context.Context, sourceID string, chunks []*store.CreateKBChunk) ([]*store.KBChunk, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin replace kb chunks")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_chunk WHERE source_id = ?`, sourceID); err != nil {
		return nil, errors.Wrap(err, "delete old kb chunks")
	}

	out := make([]*store.KBChunk, 0, len(chunks))
	for _, c := range chunks {
		var blob []byte
		if len(c.Embedding) > 0 {
			blob = packFloat32(c.Embedding)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO kb_chunk
			(id, source_id, chunk_index, content, embedding, embedding_dim, embedding_provider, embedding_model, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, sourceID, c.ChunkIndex, c.Content, blob, len(c.Embedding), c.EmbeddingProvider, c.EmbeddingModel, c.CreatedAt); err != nil {
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
	if find != nil && find.GroupFolder != nil {
		q += ` JOIN kb_source s ON s.id = c.source_id`
		conds = append(conds, "s.group_folder = ?")
		args = append(args, *find.GroupFolder)
	}
	if find != nil && find.SourceID != nil {
		conds = append(conds, "c.source_id = ?")
		args = append(args, *find.SourceID)
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
		var blob []byte
		if err := rows.Scan(&k.ID, &k.SourceID, &k.ChunkIndex, &k.Content, &blob, &k.EmbeddingDim, &k.EmbeddingProvider, &k.EmbeddingModel, &k.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan kb chunk")
		}
		if len(blob) > 0 {
			vec, err := unpackFloat32(blob)
			if err != nil {
				return nil, errors.Wrap(err, "unpack embedding")
			}
			k.Embedding = vec
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// packFloat32 little-endian-packs a float32 vector, per the spec's wire
// format for KBChunk.Embedding.
func packFloat32(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func unpackFloat32(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("unpack embedding: odd byte length %d", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
