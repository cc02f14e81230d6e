// Package catalog holds the in-memory product catalog snapshot.
//
// A Store is built once by the Loader and never mutated afterward, so all
// read methods are safe for concurrent use without locking. Catalog reloads
// produce a fresh Store which the indexer publishes atomically.
package catalog

import (
	"sort"
	"strings"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/domain/search/filter"
)

// PriceRange is the observed [min, max] discounted price span.
type PriceRange struct {
	Min float64
	Max float64
}

// Options are the distinct filterable values of a catalog, computed once at
// load time. Brands and categories are lowercased and sorted.
type Options struct {
	Brands     []string
	Categories []string
	PriceRange PriceRange
}

// Store is an immutable product catalog keyed by product id.
type Store struct {
	products []product.Product // load order
	byID     map[string]int    // id -> index into products
	options  Options
}

// newStore builds a Store and its cached filter options from loaded products.
func newStore(products []product.Product) *Store {
	s := &Store{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i := range products {
		s.byID[products[i].ID()] = i
	}
	s.options = computeOptions(products)
	return s
}

// Len returns the number of products in the catalog.
func (s *Store) Len() int { return len(s.products) }

// Get returns the product with the given id or domain.ErrNotFound.
func (s *Store) Get(id string) (product.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return product.Product{}, domain.ErrNotFound
	}
	return s.products[i], nil
}

// List returns products in load order. Out-of-range skip and limit values
// are clamped; List never fails.
func (s *Store) List(skip, limit int) []product.Product {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(s.products) {
		return nil
	}
	if limit < 0 {
		limit = 0
	}
	end := skip + limit
	if end > len(s.products) {
		end = len(s.products)
	}
	return s.products[skip:end]
}

// Products returns all products in load order. The slice is shared with the
// store and must not be mutated.
func (s *Store) Products() []product.Product { return s.products }

// FilterOptions returns the cached distinct brands, top-level categories,
// and observed price range.
func (s *Store) FilterOptions() Options { return s.options }

// EligibleIDs resolves a filter to the set of matching product ids.
// An empty filter returns nil, meaning "unrestricted"; callers pass the
// result straight to the similarity index.
func (s *Store) EligibleIDs(f filter.Filter) map[string]struct{} {
	if f.IsEmpty() {
		return nil
	}
	ids := make(map[string]struct{})
	for i := range s.products {
		if f.Matches(&s.products[i]) {
			ids[s.products[i].ID()] = struct{}{}
		}
	}
	return ids
}

func computeOptions(products []product.Product) Options {
	brands := make(map[string]struct{})
	categories := make(map[string]struct{})
	var pr PriceRange

	for i := range products {
		p := &products[i]
		if b := strings.ToLower(strings.TrimSpace(p.Brand())); b != "" {
			brands[b] = struct{}{}
		}
		if c := strings.ToLower(strings.TrimSpace(p.Category())); c != "" {
			categories[c] = struct{}{}
		}
		price := p.DiscountedPrice()
		if i == 0 {
			pr = PriceRange{Min: price, Max: price}
			continue
		}
		if price < pr.Min {
			pr.Min = price
		}
		if price > pr.Max {
			pr.Max = price
		}
	}

	return Options{
		Brands:     sortedKeys(brands),
		Categories: sortedKeys(categories),
		PriceRange: pr,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
