// Package linear is the in-process exact similarity index: a normalized
// vector table scanned with dot products. Suited to catalogs up to tens of
// thousands of items; larger deployments switch to the redisearch driver.
package linear

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/domain/search/result"
	"github.com/shopsense/shopsense/internal/index"
)

// Index is an immutable exact-search index. Safe for concurrent queries.
type Index struct {
	dim     int
	ids     []string    // sorted ascending for deterministic ties
	vectors [][]float32 // normalized, parallel to ids
}

var _ index.Index = (*Index)(nil)

// Builder builds linear indexes.
type Builder struct{}

var _ index.Builder = Builder{}

// Build constructs an index from id -> vector. Vectors are copied and
// L2-normalized so queries reduce to dot products.
func (Builder) Build(_ context.Context, dim int, vectors map[string][]float32) (index.Index, error) {
	return build(dim, vectors)
}

func build(dim int, vectors map[string][]float32) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}

	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	normed := make([][]float32, len(ids))
	for i, id := range ids {
		v := vectors[id]
		if len(v) != dim {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d: %w",
				id, len(v), dim, domain.ErrVectorDimMismatch)
		}
		normed[i] = normalized(v)
	}

	return &Index{dim: dim, ids: ids, vectors: normed}, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.ids) }

// Query scans all vectors and returns the topK best cosine scores.
// Scores are in [-1, 1]; a zero query vector scores 0 against everything,
// so ordering degrades to ascending id.
func (ix *Index) Query(
	_ context.Context, vector []float32, topK int, allowed map[string]struct{},
) ([]result.Result, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("query vector has dimension %d, want %d: %w",
			len(vector), ix.dim, domain.ErrVectorDimMismatch)
	}

	q := normalized(vector)

	hits := make([]result.Result, 0, len(ix.ids))
	for i, id := range ix.ids {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		hits = append(hits, result.New(id, dot(q, ix.vectors[i])))
	}

	// ids were inserted in ascending order, so a stable sort on score alone
	// keeps ties ordered by ascending id.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score() > hits[j].Score()
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func normalized(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
