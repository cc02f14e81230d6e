// Package catalog exposes read operations over the published catalog
// snapshot: paginated listing, id lookup, and the cached filter options.
package catalog

import (
	"fmt"

	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/repository/catalog"
	"github.com/shopsense/shopsense/internal/usecase/indexer"
)

// SnapshotProvider yields the currently published catalog snapshot.
type SnapshotProvider interface {
	Current() (*indexer.Snapshot, error)
}

// Service answers catalog read requests against the current snapshot.
type Service struct {
	snapshots       SnapshotProvider
	defaultPageSize int
	maxPageSize     int
}

// NewService creates the catalog read service.
func NewService(snapshots SnapshotProvider) *Service {
	return &Service{
		snapshots:       snapshots,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// List returns a page of products in load order. Out-of-range skip and
// limit values are clamped, never rejected.
func (s *Service) List(skip, limit int) ([]product.Product, int, error) {
	snap, err := s.snapshots.Current()
	if err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	return snap.Catalog.List(skip, limit), snap.Catalog.Len(), nil
}

// Get returns one product by id.
func (s *Service) Get(id string) (product.Product, error) {
	snap, err := s.snapshots.Current()
	if err != nil {
		return product.Product{}, err
	}

	p, err := snap.Catalog.Get(id)
	if err != nil {
		return product.Product{}, fmt.Errorf("get product %q: %w", id, err)
	}
	return p, nil
}

// FilterOptions returns the distinct brands, categories, and price range
// observed in the current snapshot.
func (s *Service) FilterOptions() (catalog.Options, error) {
	snap, err := s.snapshots.Current()
	if err != nil {
		return catalog.Options{}, err
	}
	return snap.Catalog.FilterOptions(), nil
}
