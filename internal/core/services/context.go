package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure ContextService implements the interface.
var _ driving.ContextBuilder = (*ContextService)(nil)

// Default assembly parameters.
const (
	// DefaultContextTopK is how many chunks assembly retrieves before
	// packing; deliberately wider than retrieval's default so the
	// packer has material to fill the budget with.
	DefaultContextTopK = 10

	contextHeader = "## Relevant Context"
)

// ContextService packs retrieval results into a token budget and
// renders the context blob for the generation consumer.
type ContextService struct {
	retriever driving.Retriever
	topK      int
	threshold float64
}

// NewContextService creates a new context service. topK and threshold
// are passed through to retrieval; zero values take the defaults.
func NewContextService(retriever driving.Retriever, topK int, threshold float64) *ContextService {
	if topK <= 0 {
		topK = DefaultContextTopK
	}
	return &ContextService{
		retriever: retriever,
		topK:      topK,
		threshold: threshold,
	}
}

// Build retrieves for the query and greedily packs whole chunks,
// highest score first, under the budget's context token allowance.
// Chunks are never split: packing stops at the first chunk that would
// overflow, and Truncated reports that something was left out.
func (s *ContextService) Build(
	ctx context.Context, query string, budget domain.ContextBudget,
) (domain.AssembledContext, error) {
	results, err := s.retriever.Retrieve(ctx, query, s.topK, s.threshold)
	if err != nil {
		return domain.AssembledContext{}, fmt.Errorf("retrieving context: %w", err)
	}
	if len(results) == 0 {
		return noMatchesContext(false), nil
	}

	allowance := budget.ContextTokens()
	logger.Debug("Packing %d result(s) into %d token allowance", len(results), allowance)

	var b strings.Builder
	b.WriteString(contextHeader)

	truncated := false
	var snippets []domain.Snippet

	for _, r := range results {
		block := renderSnippet(r)
		// Gate on the estimate of the whole rendered text, not a sum
		// of per-block estimates: byte remainders carry across blocks.
		if tokensForBytes(b.Len()+len(block)) > allowance {
			truncated = true
			break
		}
		b.WriteString(block)
		snippets = append(snippets, domain.Snippet{
			Source:      r.Source,
			ChunkID:     r.ChunkID,
			TotalChunks: r.TotalChunks,
			Score:       r.Score,
			Content:     r.Content,
		})
	}

	if len(snippets) == 0 {
		// Matches existed but not one fit the allowance.
		return noMatchesContext(true), nil
	}

	text := b.String()
	estimated := estimateTokens(text)
	logger.Info("Assembled %d snippet(s), ~%d tokens, truncated=%t", len(snippets), estimated, truncated)
	return domain.AssembledContext{
		Text:            text,
		Snippets:        snippets,
		EstimatedTokens: estimated,
		Truncated:       truncated,
	}, nil
}

// renderSnippet formats one chunk with its provenance header.
// Chunk ordinals are shown 1-based.
func renderSnippet(r domain.RetrievalResult) string {
	return fmt.Sprintf("\n\n## From %s (chunk %d of %d)\nRelevance: %.2f\n%s",
		r.Source, r.ChunkID+1, r.TotalChunks, r.Score, r.Content)
}

// noMatchesContext builds the sentinel result.
func noMatchesContext(truncated bool) domain.AssembledContext {
	return domain.AssembledContext{
		Text:            domain.NoRelevantContext,
		EstimatedTokens: estimateTokens(domain.NoRelevantContext),
		Truncated:       truncated,
		NoMatches:       true,
	}
}

// estimateTokens approximates the token count as one per four bytes.
func estimateTokens(s string) int {
	return tokensForBytes(len(s))
}

// tokensForBytes is the same heuristic over a byte count.
func tokensForBytes(n int) int {
	return n / 4
}
