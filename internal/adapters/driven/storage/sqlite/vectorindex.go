package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex with a flat scan over the
// entries table. Search and DeleteWhere read every row; at the
// document counts a single SQLite file serves, that O(n) cost is
// accepted and kept behind the interface so a backend with native
// nearest-neighbour search or predicate delete can replace it without
// touching callers.
type vectorIndex struct {
	store *Store
	dims  int
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert inserts or replaces entries in one transaction.
func (v *vectorIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != v.dims {
			return fmt.Errorf("%w: got %d, index expects %d",
				domain.ErrDimensionMismatch, len(e.Embedding), v.dims)
		}
		if err := e.Meta.Validate(); err != nil {
			return fmt.Errorf("entry %s metadata: %w", e.ID, err)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, file_hash, source, chunk_id, total_chunks, upload_date, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_hash = excluded.file_hash,
			source = excluded.source,
			chunk_id = excluded.chunk_id,
			total_chunks = excluded.total_chunks,
			upload_date = excluded.upload_date,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		extraJSON, err := json.Marshal(e.Meta.Extra)
		if err != nil {
			return fmt.Errorf("marshalling entry metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, e.ID, e.Meta.FileHash, e.Meta.Source,
			e.Meta.ChunkID, e.Meta.TotalChunks, e.Meta.UploadDate, e.Content,
			float32SliceToBytes(e.Embedding), string(extraJSON)); err != nil {
			return fmt.Errorf("saving entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search returns the k nearest entries by cosine distance.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != v.dims {
		return nil, fmt.Errorf("%w: query has %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), v.dims)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, file_hash, source, chunk_id, total_chunks, upload_date, content, embedding, metadata
		FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, embedding, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{
			Entry:    *entry,
			Distance: cosineDistance(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteWhere removes all entries matching the predicate.
func (v *vectorIndex) DeleteWhere(ctx context.Context, pred driven.EntryPredicate) (int, error) {
	if pred == nil {
		res, err := v.store.db.ExecContext(ctx, "DELETE FROM entries")
		if err != nil {
			return 0, fmt.Errorf("clearing entries: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	// No native predicate delete over metadata: scan, filter
	// client-side, then delete by ID.
	entries, err := v.GetAll(ctx, pred)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM entries WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID); err != nil {
			return 0, fmt.Errorf("deleting entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(entries), nil
}

// GetAll returns entries matching the predicate, without embeddings.
func (v *vectorIndex) GetAll(ctx context.Context, pred driven.EntryPredicate) ([]domain.IndexEntry, error) {
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, file_hash, source, chunk_id, total_chunks, upload_date, content, metadata
		FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []domain.IndexEntry //nolint:prealloc // size unknown until filtered
	for rows.Next() {
		entry, err := scanEntryNoEmbedding(rows)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(*entry) {
			out = append(out, *entry)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return out, nil
}

// Count returns the number of stored entries.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Dimensions returns the fixed vector size.
func (v *vectorIndex) Dimensions() int {
	return v.dims
}

// Close is a no-op; the owning Store manages the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one entry row including its embedding.
func scanEntry(row rowScanner) (*domain.IndexEntry, []float32, error) {
	var e domain.IndexEntry
	var embeddingBlob []byte
	var extraJSON string
	if err := row.Scan(&e.ID, &e.Meta.FileHash, &e.Meta.Source, &e.Meta.ChunkID,
		&e.Meta.TotalChunks, &e.Meta.UploadDate, &e.Content, &embeddingBlob, &extraJSON); err != nil {
		return nil, nil, fmt.Errorf("scanning entry: %w", err)
	}
	if err := unmarshalExtra(extraJSON, &e.Meta); err != nil {
		return nil, nil, err
	}
	return &e, bytesToFloat32Slice(embeddingBlob), nil
}

// scanEntryNoEmbedding reads one entry row without its embedding.
func scanEntryNoEmbedding(row rowScanner) (*domain.IndexEntry, error) {
	var e domain.IndexEntry
	var extraJSON string
	if err := row.Scan(&e.ID, &e.Meta.FileHash, &e.Meta.Source, &e.Meta.ChunkID,
		&e.Meta.TotalChunks, &e.Meta.UploadDate, &e.Content, &extraJSON); err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	if err := unmarshalExtra(extraJSON, &e.Meta); err != nil {
		return nil, err
	}
	return &e, nil
}

// unmarshalExtra decodes the open extension map.
func unmarshalExtra(extraJSON string, meta *domain.ChunkMeta) error {
	if extraJSON == "" || extraJSON == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(extraJSON), &meta.Extra); err != nil {
		return fmt.Errorf("unmarshaling entry metadata: %w", err)
	}
	return nil
}

// cosineDistance computes 1 - cosine similarity, in [0,2].
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
