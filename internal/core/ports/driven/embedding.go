package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Dimensionality is fixed per instance: every vector returned has
// Dimensions() elements, and the vector index is configured to match.
// Persisted vectors are not portable across embedding models.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Unavailability surfaces as
	// domain.ErrEmbeddingUnavailable from Embed and EmbedBatch.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
