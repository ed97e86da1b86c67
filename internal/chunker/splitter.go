// Package chunker provides recursive separator-based text splitting
// with overlap between adjacent chunks.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = 50

// DefaultSeparators is the separator priority order: paragraph break,
// line break, sentence terminator, whitespace, character boundary.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits text into ordered, bounded, overlapping chunks.
//
// Splitting is lossless: separators stay attached to the piece they
// terminate, so stripping each chunk's overlap prefix (every chunk but
// the first) and concatenating reconstructs the input exactly.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators sets the separator priority order. An empty string
// means splitting at character boundaries and should come last.
func WithSeparators(seps []string) Option {
	return func(s *Splitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for new content in every chunk
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split divides text into chunks of at most chunkSize bytes. The only
// exception is a single indivisible token longer than chunkSize when
// the separator list does not end at the character boundary; such a
// token is emitted whole.
//
// Empty text yields no chunks. Text within chunkSize yields exactly
// one chunk with no overlap applied. Every later chunk is prefixed
// with the trailing overlap bytes of the previous chunk, except an
// indivisible token already over chunkSize-overlap, which stands
// alone so the prefix cannot push it past chunkSize.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Base pieces target chunkSize-overlap so the overlap prefix
	// never pushes a chunk past chunkSize.
	budget := s.chunkSize - s.overlap
	pieces := mergePieces(s.splitRecursive(text, s.separators, budget), budget)

	chunks := make([]string, len(pieces))
	chunks[0] = pieces[0]
	for i := 1; i < len(pieces); i++ {
		if len(pieces[i]) > budget {
			// Indivisible over-budget token: a prefix would push it
			// past chunkSize, so it stands alone.
			chunks[i] = pieces[i]
			continue
		}
		chunks[i] = overlapSuffix(chunks[i-1], s.overlap) + pieces[i]
	}
	return chunks
}

// splitRecursive splits text with the highest-priority separator and
// re-splits any piece still over budget with the next one.
func (s *Splitter) splitRecursive(text string, seps []string, budget int) []string {
	if len(text) <= budget {
		return []string{text}
	}
	if len(seps) == 0 {
		// Indivisible token, emitted whole
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return splitEvery(text, budget)
	}

	parts := splitAfter(text, sep)
	if len(parts) == 1 {
		return s.splitRecursive(text, seps[1:], budget)
	}

	var out []string
	for _, part := range parts {
		if len(part) > budget {
			out = append(out, s.splitRecursive(part, seps[1:], budget)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// splitAfter splits text keeping the separator attached to the
// preceding piece, dropping empty pieces.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitEvery slices text into pieces of at most n bytes, cutting only
// at rune boundaries.
func splitEvery(text string, n int) []string {
	var out []string
	for len(text) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = n
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// mergePieces greedily merges adjacent undersized pieces up to budget.
func mergePieces(pieces []string, budget int) []string {
	var out []string
	var b strings.Builder
	for _, p := range pieces {
		if b.Len() > 0 && b.Len()+len(p) > budget {
			out = append(out, b.String())
			b.Reset()
		}
		b.WriteString(p)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// overlapSuffix returns the trailing overlap bytes of prev, backed off
// to a rune boundary and capped at len(prev).
func overlapSuffix(prev string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	if overlap >= len(prev) {
		return prev
	}
	start := len(prev) - overlap
	for start > 0 && !utf8.RuneStart(prev[start]) {
		start--
	}
	return prev[start:]
}
