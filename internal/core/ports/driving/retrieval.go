package driving

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// Retriever answers similarity queries over the indexed corpus.
//
// Retrieval is read-only and freely parallel with itself and with
// ingestion. Backend unavailability degrades to empty results with a
// logged warning; "no context" is a safe degraded mode.
type Retriever interface {
	// Retrieve embeds the query, searches the index for the k nearest
	// chunks, normalises scores into [0,1], drops results below the
	// threshold and returns them sorted non-increasing by score.
	Retrieve(ctx context.Context, query string, k int, scoreThreshold float64) ([]domain.RetrievalResult, error)

	// ByDocument bypasses similarity ranking and returns up to limit
	// chunks of the named document ordered by chunk ordinal.
	ByDocument(ctx context.Context, name string, limit int) ([]domain.RetrievalResult, error)
}

// ContextBuilder packs retrieval results into a token budget and
// renders the context blob for the generation consumer.
type ContextBuilder interface {
	// Build retrieves for the query and greedily packs whole chunks,
	// highest score first, under the budget's context token allowance.
	Build(ctx context.Context, query string, budget domain.ContextBudget) (domain.AssembledContext, error)
}
