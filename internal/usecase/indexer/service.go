// Package indexer owns the catalog snapshot lifecycle: load the catalog,
// fit the embedder, embed the corpus, build the similarity index, and
// publish everything as one immutable snapshot behind an atomic pointer.
// In-flight queries keep the snapshot they started with; a rebuild swaps
// the pointer only after the new snapshot is complete.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/index"
	"github.com/shopsense/shopsense/internal/metrics"
	"github.com/shopsense/shopsense/internal/repository/catalog"
)

// Snapshot is one fully built, immutable view of the catalog. All fields
// are read-only after Rebuild publishes the snapshot.
type Snapshot struct {
	Catalog  *catalog.Store
	Index    index.Index
	Embedder domain.Embedder
	BuiltAt  time.Time
}

// Service builds and publishes catalog snapshots.
type Service struct {
	source  Source
	loader  *catalog.Loader
	factory EmbedderFactory
	builder index.Builder
	logger  *zap.Logger

	rebuildMu sync.Mutex
	current   atomic.Pointer[Snapshot]
}

// NewService creates the snapshot service. No snapshot exists until the
// first successful Rebuild; Current reports the index unavailable until then.
func NewService(
	source Source,
	loader *catalog.Loader,
	factory EmbedderFactory,
	builder index.Builder,
	logger *zap.Logger,
) *Service {
	return &Service{
		source:  source,
		loader:  loader,
		factory: factory,
		builder: builder,
		logger:  logger,
	}
}

// Current returns the published snapshot, or ErrIndexUnavailable before the
// first successful rebuild.
func (s *Service) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return snap, nil
}

// Rebuild loads the catalog and builds a fresh snapshot. On any failure the
// previously published snapshot stays in place. Concurrent rebuilds are
// serialized.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()

	store, stats, err := s.loadCatalog()
	if err != nil {
		return err
	}

	products := store.Products()
	corpus := make([]string, len(products))
	ids := make([]string, len(products))
	for i := range products {
		corpus[i] = products[i].SearchText()
		ids[i] = products[i].ID()
	}

	embedder, dim, err := s.factory.Fit(ctx, corpus)
	if err != nil {
		return fmt.Errorf("fit embedder: %w", err)
	}

	vectors, err := s.embedCorpus(ctx, embedder, ids, corpus)
	if err != nil {
		return err
	}

	idx, err := s.builder.Build(ctx, dim, vectors)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	s.current.Store(&Snapshot{
		Catalog:  store,
		Index:    idx,
		Embedder: embedder,
		BuiltAt:  time.Now(),
	})

	duration := time.Since(start)
	metrics.CatalogRebuildDuration.Observe(duration.Seconds())

	s.logger.Info("Catalog snapshot rebuilt",
		zap.Int("products", stats.Loaded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("dimensions", dim),
		zap.Duration("duration", duration),
	)

	return nil
}

func (s *Service) loadCatalog() (*catalog.Store, catalog.Stats, error) {
	r, err := s.source.Open()
	if err != nil {
		return nil, catalog.Stats{}, fmt.Errorf("open catalog source: %w", err)
	}
	defer r.Close()

	store, stats, err := s.loader.Load(r)
	if err != nil {
		return nil, catalog.Stats{}, fmt.Errorf("load catalog: %w", err)
	}
	return store, stats, nil
}

func (s *Service) embedCorpus(
	ctx context.Context, embedder domain.Embedder, ids, corpus []string,
) (map[string][]float32, error) {
	var res domain.BatchEmbeddingResult
	var err error
	if be, ok := embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, corpus)
	} else {
		res, err = domain.BatchFallback(ctx, embedder, corpus)
	}
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(res.Embeddings) != len(ids) {
		return nil, fmt.Errorf("embedded %d of %d products", len(res.Embeddings), len(ids))
	}

	vectors := make(map[string][]float32, len(ids))
	for i, id := range ids {
		vectors[id] = res.Embeddings[i]
	}
	return vectors, nil
}
