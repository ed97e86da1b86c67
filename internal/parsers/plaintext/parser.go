// Package plaintext decodes plain-text-like documents.
package plaintext

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text and text-like source formats.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// SupportedTypes returns the file types this parser handles.
func (p *Parser) SupportedTypes() []string {
	return []string{
		".txt",
		".md",
		".py",
		".js",
		".ts",
		".html",
		".css",
		".json",
		".xml",
		".yaml",
		".yml",
	}
}

// Parse decodes the bytes as UTF-8, falling back to a permissive
// single-byte (Latin-1) decoding when the bytes are not valid UTF-8.
// Availability is favoured over encoding purity: plain text never
// fails to decode.
func (p *Parser) Parse(_ context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}
