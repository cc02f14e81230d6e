// Package search is the retrieval orchestrator: parse the query, merge
// filters, embed the residual text, run the similarity lookup restricted
// to eligible products, and resolve ids back to full records. The whole
// pipeline is total over any input string.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/domain/search/filter"
	"github.com/shopsense/shopsense/internal/domain/search/request"
	"github.com/shopsense/shopsense/internal/logger"
	"github.com/shopsense/shopsense/internal/metrics"
	"github.com/shopsense/shopsense/internal/usecase/parser"
)

// Match pairs a product with its similarity score.
type Match struct {
	Product product.Product
	Score   float64
}

// Explanation describes how a query was interpreted.
type Explanation struct {
	Query             string
	FiltersApplied    filter.Filter
	FilterDescription string
	NumResults        int
	Summary           string
}

// Response is the outcome of one retrieval.
type Response struct {
	Matches     []Match
	Explanation Explanation
}

// Service orchestrates the retrieval pipeline over immutable snapshots.
type Service struct {
	snapshots SnapshotProvider
	parser    QueryParser
	logger    *zap.Logger
}

// NewService creates the retrieval orchestrator.
func NewService(snapshots SnapshotProvider, qp QueryParser, logger *zap.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		parser:    qp,
		logger:    logger,
	}
}

// Query answers a natural-language product search. Parsed filters are
// overridden by the request's explicit filters on conflict. The result never
// exceeds the requested topK and never includes a product violating the
// merged filter.
func (s *Service) Query(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()

	resp, err := s.query(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return resp, err
}

func (s *Service) query(ctx context.Context, req request.Request) (Response, error) {
	snap, err := s.snapshots.Current()
	if err != nil {
		return Response{}, err
	}

	options := snap.Catalog.FilterOptions()
	parsed := s.parser.Parse(req.Query(), parser.Vocabulary{
		Brands:     options.Brands,
		Categories: options.Categories,
	})

	merged := parsed.Filter.Merge(req.Filters())

	if req.TopK() <= 0 {
		return Response{Explanation: buildExplanation(req.Query(), merged, 0)}, nil
	}

	allowed := snap.Catalog.EligibleIDs(merged)

	// An all-filter query leaves nothing to embed; rank by the full text.
	text := parsed.Residual
	if text == "" {
		text = req.Query()
	}
	embedded, err := snap.Embedder.Embed(ctx, text)
	if err != nil {
		return Response{}, fmt.Errorf("embed query: %w", err)
	}

	results, err := snap.Index.Query(ctx, embedded.Embedding, req.TopK(), allowed)
	if err != nil {
		return Response{}, fmt.Errorf("similarity lookup: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		p, err := snap.Catalog.Get(r.ID())
		if err != nil {
			// The index and catalog come from one snapshot; a dangling id
			// would mean a build bug, not a user error.
			s.logger.Warn("Index returned unknown product id",
				zap.String("id", r.ID()), zap.Error(err))
			continue
		}
		matches = append(matches, Match{Product: p, Score: r.Score()})
	}

	logger.FromContext(ctx).Debug("Query answered",
		zap.String("query", req.Query()),
		zap.String("filters", merged.Describe()),
		zap.Int("results", len(matches)),
	)

	return Response{
		Matches:     matches,
		Explanation: buildExplanation(req.Query(), merged, len(matches)),
	}, nil
}

func buildExplanation(query string, f filter.Filter, numResults int) Explanation {
	summary := "No matching products found"
	if numResults > 0 {
		summary = fmt.Sprintf("Found %d products matching your criteria", numResults)
	}
	return Explanation{
		Query:             query,
		FiltersApplied:    f,
		FilterDescription: f.Describe(),
		NumResults:        numResults,
		Summary:           summary,
	}
}
