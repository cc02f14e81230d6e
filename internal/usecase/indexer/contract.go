package indexer

import (
	"context"
	"io"

	"github.com/shopsense/shopsense/internal/domain"
)

// Source opens the raw catalog data for one load.
type Source interface {
	Open() (io.ReadCloser, error)
}

// EmbedderFactory produces the embedder used for one snapshot. Fitting on
// the corpus matters for lexical models; learned models return a fixed
// embedder. The returned dimension is the vector size for this snapshot.
type EmbedderFactory interface {
	Fit(ctx context.Context, corpus []string) (domain.Embedder, int, error)
}
