package domain

// IngestStatus is the outcome of ingesting one document.
type IngestStatus string

const (
	// IngestSuccess means the document was parsed, chunked and indexed.
	IngestSuccess IngestStatus = "success"

	// IngestSkipped means the content hash was already in the ledger.
	IngestSkipped IngestStatus = "skipped"

	// IngestError means the document failed; Message carries the reason.
	IngestError IngestStatus = "error"
)

// IngestResult reports the outcome of one ingestion attempt.
// In a batch, each file gets its own result; one failing file never
// aborts its siblings.
type IngestResult struct {
	// Status is the outcome.
	Status IngestStatus

	// Name is the display name the ingestion was attempted under.
	Name string

	// Hash is the content hash, when it was computed.
	Hash string

	// ChunkCount is the number of chunks indexed (success only).
	ChunkCount int

	// Size is the raw byte size.
	Size int64

	// Message is a human-readable description of the outcome.
	Message string
}

// Stats summarises the ledger inventory.
type Stats struct {
	// DocumentCount is the number of ledger records.
	DocumentCount int

	// ChunkCount is the total chunks across all documents.
	ChunkCount int

	// TotalSizeBytes is the summed raw byte size.
	TotalSizeBytes int64

	// TotalSizeMB is TotalSizeBytes rounded to two decimal megabytes.
	TotalSizeMB float64

	// TypeHistogram counts documents per declared file type.
	TypeHistogram map[string]int
}
