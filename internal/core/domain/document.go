package domain

import "time"

// Document is the ledger record for one ingested document.
// Identity is the content hash: ingesting the same bytes twice is
// detected and skipped. Records are immutable once written and
// disappear only on explicit removal.
type Document struct {
	// Hash is the hex-encoded content hash of the raw bytes.
	Hash string

	// Name is the display name the document was ingested under.
	Name string

	// Size is the raw byte size.
	Size int64

	// Type is the declared file type (lowercased extension, e.g. ".pdf").
	Type string

	// ChunkCount is the number of chunks produced at ingestion.
	ChunkCount int

	// IngestedAt is when the document was ingested.
	IngestedAt time.Time

	// Preview is a short excerpt of the parsed text.
	Preview string
}

// PreviewLength is the number of characters kept in Document.Preview.
const PreviewLength = 200

// ChunkMeta is the metadata bundle carried by every index entry.
// The named fields are required; Extra holds backend-specific values.
// Validate is enforced at the vector index boundary.
type ChunkMeta struct {
	// Source is the display name of the owning document.
	Source string

	// ChunkID is the dense ordinal in 0..TotalChunks-1.
	ChunkID int

	// TotalChunks is the chunk count of the owning document.
	// It must match across all chunks of one document.
	TotalChunks int

	// FileHash is the owning document's content hash.
	FileHash string

	// UploadDate is when the owning document was ingested.
	UploadDate time.Time

	// Extra holds free-form backend-specific fields.
	Extra map[string]any
}

// Validate checks the required metadata fields.
func (m ChunkMeta) Validate() error {
	if m.Source == "" || m.FileHash == "" {
		return ErrInvalidInput
	}
	if m.TotalChunks <= 0 || m.ChunkID < 0 || m.ChunkID >= m.TotalChunks {
		return ErrInvalidInput
	}
	return nil
}

// IndexEntry is a vector+chunk+metadata tuple owned by the vector index.
type IndexEntry struct {
	// ID is the unique entry identifier.
	ID string

	// Content is the chunk text body.
	Content string

	// Embedding is the fixed-dimension vector for Content.
	Embedding []float32

	// Meta is the chunk metadata bundle.
	Meta ChunkMeta
}

// RetrievalResult is one ranked hit from the retrieval engine.
type RetrievalResult struct {
	// Content is the chunk text.
	Content string

	// Source is the owning document's display name.
	Source string

	// ChunkID is the chunk ordinal within the source document.
	ChunkID int

	// TotalChunks is the source document's chunk count.
	TotalChunks int

	// Score is the normalised similarity in [0,1], higher is better.
	Score float64

	// Rank is the position in the result list, starting at 0.
	Rank int

	// Meta is the full metadata bundle of the matched entry.
	Meta ChunkMeta
}
