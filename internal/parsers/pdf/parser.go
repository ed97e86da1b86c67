// Package pdf decodes PDF documents by delegating to the pdftotext
// tool from poppler-utils.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Parser handles PDF documents via an external extraction command.
type Parser struct {
	runner driven.CommandRunner
}

// Option configures the parser.
type Option func(*Parser)

// WithRunner substitutes the command runner, for tests.
func WithRunner(r driven.CommandRunner) Option {
	return func(p *Parser) {
		if r != nil {
			p.runner = r
		}
	}
}

// New creates a new PDF parser.
func New(opts ...Option) *Parser {
	p := &Parser{runner: execRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SupportedTypes returns the file types this parser handles.
func (p *Parser) SupportedTypes() []string {
	return []string{".pdf"}
}

// Parse writes the bytes to a temporary file and extracts text with
// pdftotext. Extraction failure propagates as domain.ErrDecode.
func (p *Parser) Parse(ctx context.Context, data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "corpus-pdf-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	// "-" sends extracted text to stdout
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext: %v", domain.ErrDecode, err)
	}

	return string(out), nil
}
