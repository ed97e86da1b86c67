package parsers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/parsers/csv"
	"github.com/custodia-labs/corpus/internal/parsers/docx"
	"github.com/custodia-labs/corpus/internal/parsers/pdf"
	"github.com/custodia-labs/corpus/internal/parsers/plaintext"
	"github.com/custodia-labs/corpus/internal/parsers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps declared file types to parsers.
type Registry struct {
	byType map[string]driven.Parser
}

// NewRegistry creates a registry over the given parsers. A parser
// registered later for an already-claimed type wins.
func NewRegistry(ps ...driven.Parser) *Registry {
	r := &Registry{byType: make(map[string]driven.Parser)}
	for _, p := range ps {
		for _, t := range p.SupportedTypes() {
			r.byType[strings.ToLower(t)] = p
		}
	}
	return r
}

// NewDefaultRegistry creates a registry with all bundled parsers.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		csv.New(),
		docx.New(),
		xlsx.New(),
		pdf.New(),
	)
}

// Parse decodes data using the parser registered for declaredType.
func (r *Registry) Parse(ctx context.Context, data []byte, declaredType string) (string, error) {
	p, ok := r.byType[strings.ToLower(declaredType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, declaredType)
	}
	return p.Parse(ctx, data)
}

// Supports reports whether a parser is registered for the type.
func (r *Registry) Supports(declaredType string) bool {
	_, ok := r.byType[strings.ToLower(declaredType)]
	return ok
}

// SupportedTypes returns all registered file types, sorted.
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
