package shopsense

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsense/shopsense/internal/domain/search/filter"
	"github.com/shopsense/shopsense/internal/domain/search/request"
)

// SearchService runs natural-language product queries.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// Query parses the text, applies filters, and returns the closest products.
// Explicit filters in q.Filter take precedence over constraints parsed from
// the text.
func (s *SearchService) Query(ctx context.Context, q Query) (_ SearchResponse, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query", start, err) }()

	topK := q.TopK
	if topK == 0 {
		topK = request.DefaultTopK
	}

	req, err := request.New(q.Text, topK, toInternalFilter(q.Filter))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("query: %w", err)
	}

	resp, err := s.svc.Query(ctx, req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("query: %w", err)
	}

	matches := make([]Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = Match{
			Product: fromInternalProduct(m.Product),
			Score:   m.Score,
		}
	}

	return SearchResponse{
		Matches: matches,
		Explanation: Explanation{
			Query:             resp.Explanation.Query,
			FiltersApplied:    fromInternalFilter(resp.Explanation.FiltersApplied),
			FilterDescription: resp.Explanation.FilterDescription,
			NumResults:        resp.Explanation.NumResults,
			Summary:           resp.Explanation.Summary,
		},
	}, nil
}

func toInternalFilter(f Filter) filter.Filter {
	return filter.New(f.MinPrice, f.MaxPrice, f.Brand, f.Category, f.Color)
}

func fromInternalFilter(f filter.Filter) Filter {
	return Filter{
		MinPrice: f.MinPrice(),
		MaxPrice: f.MaxPrice(),
		Brand:    f.Brand(),
		Category: f.Category(),
		Color:    f.Color(),
	}
}
