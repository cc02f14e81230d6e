// Package filter holds the structured product filter value object.
package filter

import (
	"fmt"
	"strings"

	"github.com/shopsense/shopsense/internal/domain/product"
)

// Filter is a set of optional product constraints. Nil price pointers and
// empty strings mean "unset". A Filter is either parsed from query text or
// supplied explicitly by the caller; the two are combined via Merge.
type Filter struct {
	minPrice *float64
	maxPrice *float64
	brand    string
	category string
	color    string
}

// New creates a Filter. An inverted price range (min > max) is normalized by
// swapping the bounds, so construction is total and deterministic.
func New(minPrice, maxPrice *float64, brand, category, color string) Filter {
	f := Filter{
		minPrice: minPrice,
		maxPrice: maxPrice,
		brand:    brand,
		category: category,
		color:    color,
	}
	f.normalize()
	return f
}

func (f *Filter) normalize() {
	if f.minPrice != nil && f.maxPrice != nil && *f.minPrice > *f.maxPrice {
		f.minPrice, f.maxPrice = f.maxPrice, f.minPrice
	}
}

// MinPrice returns the lower price bound, or nil.
func (f Filter) MinPrice() *float64 { return f.minPrice }

// MaxPrice returns the upper price bound, or nil.
func (f Filter) MaxPrice() *float64 { return f.maxPrice }

// Brand returns the brand constraint, or "".
func (f Filter) Brand() string { return f.brand }

// Category returns the category constraint, or "".
func (f Filter) Category() string { return f.category }

// Color returns the color constraint, or "".
func (f Filter) Color() string { return f.color }

// IsEmpty reports whether no constraint is set.
func (f Filter) IsEmpty() bool {
	return f.minPrice == nil && f.maxPrice == nil &&
		f.brand == "" && f.category == "" && f.color == ""
}

// Merge overlays explicit caller-supplied constraints over f.
// Explicit values win on conflict; the merged price range is re-normalized.
func (f Filter) Merge(explicit Filter) Filter {
	merged := f
	if explicit.minPrice != nil {
		merged.minPrice = explicit.minPrice
	}
	if explicit.maxPrice != nil {
		merged.maxPrice = explicit.maxPrice
	}
	if explicit.brand != "" {
		merged.brand = explicit.brand
	}
	if explicit.category != "" {
		merged.category = explicit.category
	}
	if explicit.color != "" {
		merged.color = explicit.color
	}
	merged.normalize()
	return merged
}

// Matches reports whether a product satisfies every set constraint.
// Price bounds apply to the discounted price; brand and category are
// case-insensitive substring matches; color is looked up in the product
// name and description.
func (f Filter) Matches(p *product.Product) bool {
	if f.minPrice != nil && p.DiscountedPrice() < *f.minPrice {
		return false
	}
	if f.maxPrice != nil && p.DiscountedPrice() > *f.maxPrice {
		return false
	}
	if f.brand != "" &&
		!strings.Contains(strings.ToLower(p.Brand()), strings.ToLower(f.brand)) {
		return false
	}
	if f.category != "" {
		cat := strings.ToLower(strings.Join(p.CategoryPath(), " >> "))
		if !strings.Contains(cat, strings.ToLower(f.category)) {
			return false
		}
	}
	if f.color != "" {
		color := strings.ToLower(f.color)
		if !strings.Contains(strings.ToLower(p.Name()), color) &&
			!strings.Contains(strings.ToLower(p.Description()), color) {
			return false
		}
	}
	return true
}

// Describe renders the set constraints as a human-readable phrase for the
// query explanation, e.g. "price over 100 and color white".
func (f Filter) Describe() string {
	var parts []string
	if f.minPrice != nil {
		parts = append(parts, fmt.Sprintf("price over %g", *f.minPrice))
	}
	if f.maxPrice != nil {
		parts = append(parts, fmt.Sprintf("price under %g", *f.maxPrice))
	}
	if f.brand != "" {
		parts = append(parts, "brand "+f.brand)
	}
	if f.category != "" {
		parts = append(parts, "category "+f.category)
	}
	if f.color != "" {
		parts = append(parts, "color "+f.color)
	}
	return strings.Join(parts, " and ")
}
