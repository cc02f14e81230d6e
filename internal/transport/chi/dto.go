package chi

import (
	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/repository/catalog"
	healthuc "github.com/shopsense/shopsense/internal/usecase/health"
	searchuc "github.com/shopsense/shopsense/internal/usecase/search"
)

// ErrorCode identifies the error class in API responses.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeNotFound               ErrorCode = "not_found"
	CodeIndexUnavailable       ErrorCode = "index_unavailable"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query   string         `json:"query" validate:"max=4096"`
	TopK    *int           `json:"top_k" validate:"omitempty,max=100"`
	Filters *FilterRequest `json:"filters"`
}

// FilterRequest carries explicit filters supplied alongside the query text.
type FilterRequest struct {
	MinPrice *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `json:"max_price" validate:"omitempty,gte=0"`
	Brand    string   `json:"brand" validate:"max=128"`
	Category string   `json:"category" validate:"max=128"`
	Color    string   `json:"color" validate:"max=64"`
}

// ProductResponse is the wire shape of one product.
type ProductResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Brand           string            `json:"brand,omitempty"`
	CategoryPath    []string          `json:"category_path,omitempty"`
	Description     string            `json:"description,omitempty"`
	RetailPrice     float64           `json:"retail_price"`
	DiscountedPrice float64           `json:"discounted_price"`
	ImageURLs       []string          `json:"image_urls,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
}

// ProductListResponse is the body of GET /products.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Limit int               `json:"limit"`
}

// QueryResultItem pairs a product with its similarity score.
type QueryResultItem struct {
	Product ProductResponse `json:"product"`
	Score   float64         `json:"score"`
}

// ExplanationResponse describes how the query was interpreted.
type ExplanationResponse struct {
	Query             string          `json:"query"`
	FiltersApplied    *FilterRequest  `json:"filters_applied,omitempty"`
	FilterDescription string          `json:"filter_description,omitempty"`
	NumResults        int             `json:"num_results"`
	Summary           string          `json:"results_summary"`
}

// QueryResponse is the body of POST /query.
type QueryResponse struct {
	Results     []QueryResultItem   `json:"results"`
	Explanation ExplanationResponse `json:"explanation"`
}

// PriceRangeResponse is the observed [min, max] discounted price range.
type PriceRangeResponse struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptionsResponse is the body of GET /filters.
type FilterOptionsResponse struct {
	Brands     []string           `json:"brands"`
	Categories []string           `json:"categories"`
	PriceRange PriceRangeResponse `json:"price_range"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks"`
	ProductsLoaded int               `json:"products_loaded"`
}

// ReloadResponse is the body of POST /admin/reload.
type ReloadResponse struct {
	Status         string `json:"status"`
	ProductsLoaded int    `json:"products_loaded"`
}

func productToDTO(p product.Product) ProductResponse {
	return ProductResponse{
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

func explanationToDTO(e searchuc.Explanation) ExplanationResponse {
	resp := ExplanationResponse{
		Query:             e.Query,
		FilterDescription: e.FilterDescription,
		NumResults:        e.NumResults,
		Summary:           e.Summary,
	}

	f := e.FiltersApplied
	if !f.IsEmpty() {
		resp.FiltersApplied = &FilterRequest{
			MinPrice: f.MinPrice(),
			MaxPrice: f.MaxPrice(),
			Brand:    f.Brand(),
			Category: f.Category(),
			Color:    f.Color(),
		}
	}
	return resp
}

func optionsToDTO(o catalog.Options) FilterOptionsResponse {
	brands := o.Brands
	if brands == nil {
		brands = []string{}
	}
	categories := o.Categories
	if categories == nil {
		categories = []string{}
	}
	return FilterOptionsResponse{
		Brands:     brands,
		Categories: categories,
		PriceRange: PriceRangeResponse{
			Min: o.PriceRange.Min,
			Max: o.PriceRange.Max,
		},
	}
}

func healthToDTO(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{
		Status:         string(r.Status),
		Checks:         checks,
		ProductsLoaded: r.ProductsLoaded,
	}
}
