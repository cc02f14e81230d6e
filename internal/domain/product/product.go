// Package product holds the catalog product aggregate.
package product

import (
	"fmt"
	"sort"
	"strings"
)

// Product is an immutable catalog record. Instances are built once at load
// time and never mutated by query traffic.
type Product struct {
	id              string
	name            string
	brand           string
	categoryPath    []string
	description     string
	retailPrice     float64
	discountedPrice float64
	imageURLs       []string
	specifications  map[string]string
}

// New validates and creates a Product.
// Invariant: 0 <= discountedPrice <= retailPrice.
func New(
	id, name, brand string,
	categoryPath []string,
	description string,
	retailPrice, discountedPrice float64,
	imageURLs []string,
	specifications map[string]string,
) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product ID is required")
	}
	if retailPrice < 0 {
		return Product{}, fmt.Errorf("retail price must be non-negative, got %v", retailPrice)
	}
	if discountedPrice < 0 {
		return Product{}, fmt.Errorf("discounted price must be non-negative, got %v", discountedPrice)
	}
	if discountedPrice > retailPrice {
		return Product{}, fmt.Errorf(
			"discounted price %v exceeds retail price %v", discountedPrice, retailPrice)
	}

	return Product{
		id:              id,
		name:            name,
		brand:           brand,
		categoryPath:    categoryPath,
		description:     description,
		retailPrice:     retailPrice,
		discountedPrice: discountedPrice,
		imageURLs:       imageURLs,
		specifications:  specifications,
	}, nil
}

// ID returns the unique product identifier.
func (p *Product) ID() string { return p.id }

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// Brand returns the product brand.
func (p *Product) Brand() string { return p.brand }

// CategoryPath returns the category labels from coarse to fine.
func (p *Product) CategoryPath() []string { return p.categoryPath }

// Category returns the top-level category label, or "" when uncategorized.
func (p *Product) Category() string {
	if len(p.categoryPath) == 0 {
		return ""
	}
	return p.categoryPath[0]
}

// Description returns the free-text description.
func (p *Product) Description() string { return p.description }

// RetailPrice returns the undiscounted price.
func (p *Product) RetailPrice() float64 { return p.retailPrice }

// DiscountedPrice returns the effective selling price. Filtering and the
// catalog price range operate on this value.
func (p *Product) DiscountedPrice() float64 { return p.discountedPrice }

// ImageURLs returns the product image URLs.
func (p *Product) ImageURLs() []string { return p.imageURLs }

// Specifications returns the free-form attribute map.
func (p *Product) Specifications() map[string]string { return p.specifications }

// SearchText builds the text representation used for embedding: name, brand,
// category path, description, and specification pairs joined by spaces.
func (p *Product) SearchText() string {
	parts := make([]string, 0, 4+len(p.specifications))
	for _, s := range []string{p.name, p.brand, strings.Join(p.categoryPath, " "), p.description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	// Sorted keys keep the text (and therefore the embedding) deterministic.
	keys := make([]string, 0, len(p.specifications))
	for k := range p.specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+p.specifications[k])
	}
	return strings.Join(parts, " ")
}
