// Package index defines the similarity index capability.
//
// The retrieval pipeline depends only on these contracts; drivers live in
// the linear (in-process exact search) and redisearch (Redis FT vector
// index) subpackages.
package index

import (
	"context"

	"github.com/shopsense/shopsense/internal/domain/search/result"
)

// Index answers top-K nearest-neighbor queries over the embedded catalog.
type Index interface {
	// Query returns up to topK (id, score) pairs ordered by descending
	// cosine score, ties broken by ascending id. When allowed is non-nil,
	// results are restricted to that id set; excluded ids never appear.
	// topK <= 0 yields an empty result, never an error.
	Query(ctx context.Context, vector []float32, topK int, allowed map[string]struct{}) ([]result.Result, error)
}

// Builder constructs a fresh Index from the fully embedded catalog.
// A build produces a new immutable index; it holds product ids only, never
// product records.
type Builder interface {
	Build(ctx context.Context, dim int, vectors map[string][]float32) (Index, error)
}
