package driven

import "context"

// Parser decodes raw document bytes into text for one family of file
// types. Parsing is a pure function of the input bytes: no side
// effects, no retained state.
type Parser interface {
	// SupportedTypes returns the declared file types this parser
	// handles, as lowercased extensions including the dot.
	SupportedTypes() []string

	// Parse decodes the raw bytes into text.
	// Structured formats return domain.ErrDecode on failure rather
	// than guessing.
	Parse(ctx context.Context, data []byte) (string, error)
}

// ParserRegistry routes raw bytes to the parser registered for a
// declared file type.
type ParserRegistry interface {
	// Parse decodes data using the parser for declaredType.
	// Returns domain.ErrUnsupportedFileType when no parser is
	// registered.
	Parse(ctx context.Context, data []byte, declaredType string) (string, error)

	// Supports reports whether a parser is registered for the type.
	Supports(declaredType string) bool

	// SupportedTypes returns all registered file types.
	SupportedTypes() []string
}

// CommandRunner executes an external command and returns its stdout.
// Parsers that delegate to external tools (PDF text extraction) take
// this as a dependency so tests can substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
