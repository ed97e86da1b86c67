package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// ledger implements driven.Ledger.
type ledger struct {
	store *Store
}

var _ driven.Ledger = (*ledger)(nil)

// Record stores a document record keyed by its content hash.
func (l *ledger) Record(ctx context.Context, doc domain.Document) error {
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO documents (hash, name, size, type, chunk_count, ingested_at, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			name = excluded.name,
			size = excluded.size,
			type = excluded.type,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at,
			preview = excluded.preview
	`, doc.Hash, doc.Name, doc.Size, doc.Type, doc.ChunkCount, doc.IngestedAt, doc.Preview)

	if err != nil {
		return fmt.Errorf("recording document: %w", err)
	}
	return nil
}

// IsKnown reports whether a content hash has been recorded.
func (l *ledger) IsKnown(ctx context.Context, hash string) (bool, error) {
	var one int
	err := l.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE hash = ?", hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking document: %w", err)
	}
	return true, nil
}

// Get retrieves a record by content hash.
func (l *ledger) Get(ctx context.Context, hash string) (*domain.Document, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT hash, name, size, type, chunk_count, ingested_at, preview
		FROM documents WHERE hash = ?
	`, hash)

	var doc domain.Document
	err := row.Scan(&doc.Hash, &doc.Name, &doc.Size, &doc.Type,
		&doc.ChunkCount, &doc.IngestedAt, &doc.Preview)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// Remove deletes a record by content hash.
func (l *ledger) Remove(ctx context.Context, hash string) error {
	_, err := l.store.db.ExecContext(ctx, "DELETE FROM documents WHERE hash = ?", hash)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// List returns all records.
func (l *ledger) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT hash, name, size, type, chunk_count, ingested_at, preview
		FROM documents ORDER BY ingested_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.Hash, &doc.Name, &doc.Size, &doc.Type,
			&doc.ChunkCount, &doc.IngestedAt, &doc.Preview); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Clear removes all records.
func (l *ledger) Clear(ctx context.Context) error {
	_, err := l.store.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}
