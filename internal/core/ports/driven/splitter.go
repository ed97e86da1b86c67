package driven

// Splitter divides raw text into ordered, bounded, overlapping chunks.
// An empty input yields no chunks; input shorter than the chunk size
// yields exactly one chunk with no overlap applied.
type Splitter interface {
	Split(text string) []string
}
