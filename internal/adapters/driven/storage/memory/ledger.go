package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.Ledger.
type Ledger struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewLedger creates a new in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{docs: make(map[string]domain.Document)}
}

// Record stores a document record keyed by its content hash.
func (l *Ledger) Record(_ context.Context, doc domain.Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[doc.Hash] = doc
	return nil
}

// IsKnown reports whether a content hash has been recorded.
func (l *Ledger) IsKnown(_ context.Context, hash string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.docs[hash]
	return ok, nil
}

// Get retrieves a record by content hash.
func (l *Ledger) Get(_ context.Context, hash string) (*domain.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.docs[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// Remove deletes a record by content hash.
func (l *Ledger) Remove(_ context.Context, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.docs, hash)
	return nil
}

// List returns all records.
func (l *Ledger) List(_ context.Context) ([]domain.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	docs := make([]domain.Document, 0, len(l.docs))
	for _, doc := range l.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

// Clear removes all records.
func (l *Ledger) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs = make(map[string]domain.Document)
	return nil
}
