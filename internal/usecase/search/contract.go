package search

import (
	"github.com/shopsense/shopsense/internal/usecase/indexer"
	"github.com/shopsense/shopsense/internal/usecase/parser"
)

// SnapshotProvider yields the currently published catalog snapshot.
type SnapshotProvider interface {
	Current() (*indexer.Snapshot, error)
}

// QueryParser extracts structured filters from free text.
type QueryParser interface {
	Parse(text string, vocab parser.Vocabulary) parser.Parsed
}
