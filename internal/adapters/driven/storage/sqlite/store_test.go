package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testDoc(hash, name string) domain.Document {
	return domain.Document{
		Hash:       hash,
		Name:       name,
		Size:       128,
		Type:       ".txt",
		ChunkCount: 2,
		IngestedAt: time.Now().UTC().Truncate(time.Second),
		Preview:    "first two hundred characters",
	}
}

func testEntry(id, source, hash string, chunkID, total int, embedding []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ID:        id,
		Content:   "content of " + id,
		Embedding: embedding,
		Meta: domain.ChunkMeta{
			Source:      source,
			ChunkID:     chunkID,
			TotalChunks: total,
			FileHash:    hash,
			UploadDate:  time.Now().UTC().Truncate(time.Second),
		},
	}
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening the same directory must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	docs, err := store.Ledger().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l := setupTestStore(t).Ledger()

	known, err := l.IsKnown(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, known)

	want := testDoc("h1", "report.txt")
	require.NoError(t, l.Record(ctx, want))

	known, err = l.IsKnown(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, known)

	got, err := l.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.ChunkCount, got.ChunkCount)
	assert.Equal(t, want.Preview, got.Preview)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_RecordIsUpsert(t *testing.T) {
	ctx := context.Background()
	l := setupTestStore(t).Ledger()

	require.NoError(t, l.Record(ctx, testDoc("h1", "old.txt")))

	updated := testDoc("h1", "new.txt")
	updated.ChunkCount = 7
	require.NoError(t, l.Record(ctx, updated))

	got, err := l.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", got.Name)
	assert.Equal(t, 7, got.ChunkCount)

	docs, err := l.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLedger_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	l := setupTestStore(t).Ledger()

	require.NoError(t, l.Record(ctx, testDoc("h1", "a.txt")))
	require.NoError(t, l.Record(ctx, testDoc("h2", "b.txt")))

	require.NoError(t, l.Remove(ctx, "h1"))
	docs, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "h2", docs[0].Hash)

	require.NoError(t, l.Clear(ctx))
	docs, err = l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestVectorIndex_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(3)

	err := idx.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "a.txt", "h1", 0, 2, []float32{1, 0, 0}),
		testEntry("e2", "a.txt", "h1", 1, 2, []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "e1", hits[0].Entry.ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.Equal(t, "e2", hits[1].Entry.ID)
	assert.InDelta(t, 1.0, hits[1].Distance, 1e-6)
	assert.Equal(t, "content of e1", hits[0].Entry.Content)
	assert.Equal(t, "a.txt", hits[0].Entry.Meta.Source)
}

func TestVectorIndex_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "a.txt", "h1", 0, 1, []float32{1, 0}),
	}))
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "renamed.txt", "h1", 0, 1, []float32{0, 1}),
	}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := idx.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "renamed.txt", entries[0].Meta.Source)
}

func TestVectorIndex_RejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(3)

	err := idx.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "a.txt", "h1", 0, 1, []float32{1, 0}),
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	// Nothing from the rejected batch may be stored.
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_RejectsInvalidMetadata(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(2)

	entry := testEntry("e1", "a.txt", "h1", 3, 2, []float32{1, 0})
	err := idx.Upsert(ctx, []domain.IndexEntry{entry})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_DeleteWhere(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(2)

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "a.txt", "h1", 0, 2, []float32{1, 0}),
		testEntry("e2", "a.txt", "h1", 1, 2, []float32{0, 1}),
		testEntry("e3", "b.txt", "h2", 0, 1, []float32{1, 1}),
	}))

	removed, err := idx.DeleteWhere(ctx, func(e domain.IndexEntry) bool {
		return e.Meta.FileHash == "h1"
	})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := idx.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e3", entries[0].ID)

	// Nil predicate clears the whole index.
	removed, err = idx.DeleteWhere(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorIndex_ExtraMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex(2)

	entry := testEntry("e1", "a.txt", "h1", 0, 1, []float32{1, 0})
	entry.Meta.Extra = map[string]any{"language": "en"}
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{entry}))

	entries, err := idx.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "en", entries[0].Meta.Extra["language"])
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.1415927, -2.5e-3}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)
}
