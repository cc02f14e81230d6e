// Package result holds the similarity search hit value object.
package result

// Result is a single similarity hit: a product id with its cosine score.
// The index layer resolves ids only; product records are attached by the
// retrieval service.
type Result struct {
	id    string
	score float64
}

// New creates a search result.
func New(id string, score float64) Result {
	return Result{id: id, score: score}
}

// ID returns the product identifier.
func (r *Result) ID() string { return r.id }

// Score returns the cosine similarity score in [-1, 1].
func (r *Result) Score() float64 { return r.score }
