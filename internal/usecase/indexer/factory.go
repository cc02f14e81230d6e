package indexer

import (
	"context"
	"io"
	"os"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/embedding/tfidf"
)

// FileSource reads the catalog from a file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(path string) FileSource {
	return FileSource{path: path}
}

// Open opens the catalog file for reading.
func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// TFIDFFactory fits a fresh term-frequency vectorizer on every rebuild, so
// document frequencies always reflect the current catalog.
type TFIDFFactory struct {
	dim int
}

// NewTFIDFFactory creates a factory producing vectors of the given dimension.
func NewTFIDFFactory(dim int) *TFIDFFactory {
	if dim <= 0 {
		dim = tfidf.DefaultDimensions
	}
	return &TFIDFFactory{dim: dim}
}

// Fit trains a vectorizer on the corpus.
func (f *TFIDFFactory) Fit(_ context.Context, corpus []string) (domain.Embedder, int, error) {
	v := tfidf.New(f.dim).Fit(corpus)
	return v, v.Dimensions(), nil
}

// StaticFactory wraps a pre-built embedder. Learned models are fitted
// offline, so the corpus is ignored.
type StaticFactory struct {
	embedder domain.Embedder
	dim      int
}

// NewStaticFactory creates a factory returning the given embedder as-is.
func NewStaticFactory(embedder domain.Embedder, dim int) *StaticFactory {
	return &StaticFactory{embedder: embedder, dim: dim}
}

// Fit returns the wrapped embedder unchanged.
func (f *StaticFactory) Fit(_ context.Context, _ []string) (domain.Embedder, int, error) {
	return f.embedder, f.dim, nil
}
