package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

func wideBudget() domain.ContextBudget {
	return domain.ContextBudget{MaxTokens: 4096, ReservedTokens: 1000, ContextRatio: 0.5}
}

func cannedResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{
			Content: "Paris is the capital of France.",
			Source:  "geography.txt", ChunkID: 0, TotalChunks: 2, Score: 0.91, Rank: 0,
		},
		{
			Content: "France borders Spain and Italy.",
			Source:  "geography.txt", ChunkID: 1, TotalChunks: 2, Score: 0.74, Rank: 1,
		},
	}
}

func TestBuild_RendersSnippetsWithProvenance(t *testing.T) {
	svc := NewContextService(&stubRetriever{results: cannedResults()}, 0, 0)

	out, err := svc.Build(context.Background(), "capital of France", wideBudget())
	require.NoError(t, err)

	assert.False(t, out.NoMatches)
	assert.False(t, out.Truncated)
	require.Len(t, out.Snippets, 2)

	assert.True(t, strings.HasPrefix(out.Text, "## Relevant Context"))
	assert.Contains(t, out.Text, "## From geography.txt (chunk 1 of 2)")
	assert.Contains(t, out.Text, "Relevance: 0.91")
	assert.Contains(t, out.Text, "Paris is the capital of France.")
	assert.Contains(t, out.Text, "## From geography.txt (chunk 2 of 2)")

	assert.Equal(t, len(out.Text)/4, out.EstimatedTokens)
}

func TestBuild_PacksHighestScoreFirst(t *testing.T) {
	// Results arrive ranked; the first snippet must be the top one.
	svc := NewContextService(&stubRetriever{results: cannedResults()}, 0, 0)

	out, err := svc.Build(context.Background(), "query", wideBudget())
	require.NoError(t, err)
	require.NotEmpty(t, out.Snippets)
	assert.Equal(t, 0.91, out.Snippets[0].Score)
}

func TestBuild_TruncatesAtBudget(t *testing.T) {
	results := cannedResults()
	svc := NewContextService(&stubRetriever{results: results}, 0, 0)

	// Room for the header and roughly one snippet, not two.
	budget := domain.ContextBudget{MaxTokens: 30, ReservedTokens: 0, ContextRatio: 1}
	out, err := svc.Build(context.Background(), "query", budget)
	require.NoError(t, err)

	assert.True(t, out.Truncated)
	require.Len(t, out.Snippets, 1)
	assert.Equal(t, results[0].Content, out.Snippets[0].Content)
	assert.NotContains(t, out.Text, results[1].Content)
	assert.LessOrEqual(t, out.EstimatedTokens, budget.ContextTokens())
}

func TestBuild_BudgetHoldsWhenByteRemaindersCarry(t *testing.T) {
	result := cannedResults()[0]
	svc := NewContextService(&stubRetriever{results: []domain.RetrievalResult{result}}, 0, 0)

	block := renderSnippet(result)
	whole := estimateTokens(contextHeader + block)
	summed := estimateTokens(contextHeader) + estimateTokens(block)
	// The interesting case: floor-divided parts undercount the whole.
	require.Greater(t, whole, summed)

	// A budget equal to the summed parts must not admit the snippet.
	budget := domain.ContextBudget{MaxTokens: summed, ReservedTokens: 0, ContextRatio: 1}
	out, err := svc.Build(context.Background(), "query", budget)
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.Empty(t, out.Snippets)

	// A budget equal to the whole-text estimate admits it exactly.
	budget.MaxTokens = whole
	out, err = svc.Build(context.Background(), "query", budget)
	require.NoError(t, err)
	require.Len(t, out.Snippets, 1)
	assert.Equal(t, whole, out.EstimatedTokens)
	assert.LessOrEqual(t, out.EstimatedTokens, budget.ContextTokens())
}

func TestBuild_NothingFits(t *testing.T) {
	svc := NewContextService(&stubRetriever{results: cannedResults()}, 0, 0)

	budget := domain.ContextBudget{MaxTokens: 5, ReservedTokens: 0, ContextRatio: 1}
	out, err := svc.Build(context.Background(), "query", budget)
	require.NoError(t, err)

	assert.True(t, out.NoMatches)
	assert.True(t, out.Truncated)
	assert.Equal(t, domain.NoRelevantContext, out.Text)
	assert.Empty(t, out.Snippets)
}

func TestBuild_NoMatchesSentinel(t *testing.T) {
	svc := NewContextService(&stubRetriever{}, 0, 0)

	out, err := svc.Build(context.Background(), "query", wideBudget())
	require.NoError(t, err)

	assert.True(t, out.NoMatches)
	assert.False(t, out.Truncated)
	assert.Equal(t, domain.NoRelevantContext, out.Text)
}

func TestBuild_PropagatesRetrieverError(t *testing.T) {
	svc := NewContextService(&stubRetriever{err: domain.ErrInvalidInput}, 0, 0)

	_, err := svc.Build(context.Background(), "", wideBudget())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestContextBudget_Allowance(t *testing.T) {
	b := domain.ContextBudget{MaxTokens: 1000, ReservedTokens: 200, ContextRatio: 0.5}
	assert.Equal(t, 400, b.ContextTokens())

	// Out-of-range ratio falls back to the full remainder.
	b.ContextRatio = 0
	assert.Equal(t, 800, b.ContextTokens())

	b.ReservedTokens = 1200
	assert.Zero(t, b.ContextTokens())
}
