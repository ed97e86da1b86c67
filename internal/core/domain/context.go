package domain

// NoRelevantContext is the sentinel text returned when no chunk clears
// the score threshold. Returning it instead of an empty string lets the
// generation consumer distinguish "nothing relevant" from a pipeline
// fault.
const NoRelevantContext = "No relevant documents found in the knowledge base."

// ContextBudget describes the token allowance for assembled context.
type ContextBudget struct {
	// MaxTokens is the consumer's total context window.
	MaxTokens int

	// ReservedTokens is space held back for instructions and the
	// expected response.
	ReservedTokens int

	// ContextRatio is the fraction of the remainder spent on
	// retrieved snippets, in (0,1].
	ContextRatio float64
}

// ContextTokens returns the token allowance for retrieved snippets:
// (MaxTokens - ReservedTokens) * ContextRatio.
func (b ContextBudget) ContextTokens() int {
	free := b.MaxTokens - b.ReservedTokens
	if free <= 0 {
		return 0
	}
	ratio := b.ContextRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return int(float64(free) * ratio)
}

// Snippet is one chunk included in an assembled context, with the
// provenance recorded in its header.
type Snippet struct {
	// Source is the owning document's display name.
	Source string

	// ChunkID is the chunk ordinal within the source document.
	ChunkID int

	// TotalChunks is the source document's chunk count.
	TotalChunks int

	// Score is the normalised similarity of the chunk.
	Score float64

	// Content is the chunk text.
	Content string
}

// AssembledContext is the packed, rendered context blob.
type AssembledContext struct {
	// Text is the rendered context, or NoRelevantContext when nothing
	// cleared the threshold.
	Text string

	// Snippets are the included chunks in packing order.
	Snippets []Snippet

	// EstimatedTokens is the heuristic token count of Text.
	EstimatedTokens int

	// Truncated is true when at least one retrieved chunk was left out
	// because it would have overflowed the budget.
	Truncated bool

	// NoMatches is true when Text is the sentinel.
	NoMatches bool
}
