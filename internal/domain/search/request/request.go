// Package request holds the validated search request value object.
package request

import (
	"fmt"

	"github.com/shopsense/shopsense/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Request is a validated natural-language search request.
type Request struct {
	query   string
	topK    int
	filters filter.Filter
}

// New validates and normalizes search parameters.
// An empty query is allowed (the pipeline is total over any input string).
// A topK above MaxTopK is clamped; zero or negative topK is preserved and
// yields an empty result downstream.
func New(query string, topK int, filters filter.Filter) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{query: query, topK: topK, filters: filters}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// TopK returns the requested result count.
func (r *Request) TopK() int { return r.topK }

// Filters returns the explicit caller-supplied filters.
func (r *Request) Filters() filter.Filter { return r.filters }
