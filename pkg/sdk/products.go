package shopsense

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsense/shopsense/internal/domain/product"
)

// ProductService exposes catalog listings and lookups.
type ProductService struct {
	svc catalogUseCase
	obs *observer
}

// List returns a page of the catalog in load order. A non-positive limit
// falls back to the configured default page size.
func (s *ProductService) List(ctx context.Context, skip, limit int) (_ ProductPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("list_products", start, err) }()
	_ = ctx

	products, total, err := s.svc.List(skip, limit)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	out := make([]Product, len(products))
	for i := range products {
		out[i] = fromInternalProduct(products[i])
	}
	return ProductPage{Products: out, Total: total}, nil
}

// Get retrieves a product by id.
func (s *ProductService) Get(ctx context.Context, id string) (_ Product, err error) {
	start := time.Now()
	defer func() { s.obs.observe("get_product", start, err) }()
	_ = ctx

	p, err := s.svc.Get(id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return fromInternalProduct(p), nil
}

// FilterOptions returns the distinct filterable values of the loaded catalog.
func (s *ProductService) FilterOptions(ctx context.Context) (_ FilterOptions, err error) {
	start := time.Now()
	defer func() { s.obs.observe("filter_options", start, err) }()
	_ = ctx

	opts, err := s.svc.FilterOptions()
	if err != nil {
		return FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}
	return FilterOptions{
		Brands:     opts.Brands,
		Categories: opts.Categories,
		PriceRange: PriceRange{Min: opts.PriceRange.Min, Max: opts.PriceRange.Max},
	}, nil
}

func fromInternalProduct(p product.Product) Product {
	return Product{
		ID:              p.ID(),
		Name:            p.Name(),
		Brand:           p.Brand(),
		CategoryPath:    p.CategoryPath(),
		Description:     p.Description(),
		RetailPrice:     p.RetailPrice(),
		DiscountedPrice: p.DiscountedPrice(),
		ImageURLs:       p.ImageURLs(),
		Specifications:  p.Specifications(),
	}
}
