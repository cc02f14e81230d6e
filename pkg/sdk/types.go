package shopsense

// Product is a catalog product.
type Product struct {
	ID              string
	Name            string
	Brand           string
	CategoryPath    []string
	Description     string
	RetailPrice     float64
	DiscountedPrice float64
	ImageURLs       []string
	Specifications  map[string]string
}

// ProductPage is a paginated catalog listing.
type ProductPage struct {
	Products []Product
	Total    int
}

// Filter restricts search results. Zero-value fields are inactive.
type Filter struct {
	MinPrice *float64
	MaxPrice *float64
	Brand    string
	Category string
	Color    string
}

// Query is a natural-language product search request.
type Query struct {
	// Text is the free-form query, e.g. "white shirts under 600".
	Text string
	// TopK caps the number of matches. Zero means the default of 5;
	// negative values return no matches.
	TopK int
	// Filter holds explicit constraints. They take precedence over
	// constraints parsed from Text.
	Filter Filter
}

// Match pairs a product with its similarity score.
type Match struct {
	Product Product
	Score   float64
}

// Explanation describes how a query was interpreted.
type Explanation struct {
	Query             string
	FiltersApplied    Filter
	FilterDescription string
	NumResults        int
	Summary           string
}

// SearchResponse is the outcome of one query.
type SearchResponse struct {
	Matches     []Match
	Explanation Explanation
}

// PriceRange is the observed [min, max] discounted price span.
type PriceRange struct {
	Min float64
	Max float64
}

// FilterOptions are the distinct filterable values of the loaded catalog.
type FilterOptions struct {
	Brands     []string
	Categories []string
	PriceRange PriceRange
}
