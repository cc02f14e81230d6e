package parser

import (
	"testing"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain/search/filter"
)

func newTestParser() *Service {
	return NewService(zap.NewNop())
}

func fp(v float64) *float64 { return &v }

func TestParse_ColorAndMaxPrice(t *testing.T) {
	p := newTestParser()

	got := p.Parse("white shirts under 600", Vocabulary{})

	if got.Filter.Color() != "white" {
		t.Errorf("expected color white, got %q", got.Filter.Color())
	}
	if got.Filter.MaxPrice() == nil || *got.Filter.MaxPrice() != 600 {
		t.Errorf("expected max price 600, got %v", got.Filter.MaxPrice())
	}
	if got.Filter.MinPrice() != nil {
		t.Errorf("expected no min price, got %v", *got.Filter.MinPrice())
	}
	if got.Residual != "shirts" {
		t.Errorf("expected residual %q, got %q", "shirts", got.Residual)
	}
}

func TestParse_PricePhrases(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		minPrice *float64
		maxPrice *float64
	}{
		{"under", "shoes under 500", nil, fp(500)},
		{"below", "shoes below 500", nil, fp(500)},
		{"less than", "shoes less than 500", nil, fp(500)},
		{"over", "shoes over 1000", fp(1000), nil},
		{"above", "shoes above 1000", fp(1000), nil},
		{"more than", "shoes more than 1000", fp(1000), nil},
		{"between", "shoes between 100 and 200", fp(100), fp(200)},
		{"between inverted swaps", "shoes between 200 and 100", fp(100), fp(200)},
		{"currency symbol", "shoes under $500", nil, fp(500)},
		{"rupee marker", "shoes under rs. 500", nil, fp(500)},
		{"thousands separator", "laptops under 1,299.99", nil, fp(1299.99)},
		{"case insensitive", "shoes UNDER 500", nil, fp(500)},
		{"no price", "comfortable running shoes", nil, nil},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.query, Vocabulary{})

			checkPrice(t, "min", got.Filter.MinPrice(), tt.minPrice)
			checkPrice(t, "max", got.Filter.MaxPrice(), tt.maxPrice)
		})
	}
}

func checkPrice(t *testing.T, label string, got, want *float64) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("expected no %s price, got %v", label, *got)
	case want != nil && got == nil:
		t.Errorf("expected %s price %v, got nil", label, *want)
	case want != nil && got != nil && *got != *want:
		t.Errorf("expected %s price %v, got %v", label, *want, *got)
	}
}

func TestParse_LeftmostPricePhraseWins(t *testing.T) {
	p := newTestParser()

	got := p.Parse("shirts under 500 but over 100", Vocabulary{})

	if got.Filter.MaxPrice() == nil || *got.Filter.MaxPrice() != 500 {
		t.Errorf("expected max price 500, got %v", got.Filter.MaxPrice())
	}
	if got.Filter.MinPrice() != nil {
		t.Errorf("expected later price phrase to be ignored, got min %v", *got.Filter.MinPrice())
	}
}

func TestParse_BetweenWinsAtSamePosition(t *testing.T) {
	p := newTestParser()

	got := p.Parse("between 100 and 200", Vocabulary{})

	if got.Filter.MinPrice() == nil || *got.Filter.MinPrice() != 100 {
		t.Errorf("expected min price 100, got %v", got.Filter.MinPrice())
	}
	if got.Filter.MaxPrice() == nil || *got.Filter.MaxPrice() != 200 {
		t.Errorf("expected max price 200, got %v", got.Filter.MaxPrice())
	}
}

func TestParse_ColorWholeWordOnly(t *testing.T) {
	p := newTestParser()

	got := p.Parse("blackberry phone case", Vocabulary{})

	if got.Filter.Color() != "" {
		t.Errorf("expected no color inside a larger word, got %q", got.Filter.Color())
	}
}

func TestParse_BrandAndCategoryFromVocabulary(t *testing.T) {
	p := newTestParser()
	vocab := Vocabulary{
		Brands:     []string{"nike", "zara"},
		Categories: []string{"clothing", "footwear"},
	}

	got := p.Parse("Nike footwear under 2000", vocab)

	if got.Filter.Brand() != "nike" {
		t.Errorf("expected brand nike, got %q", got.Filter.Brand())
	}
	if got.Filter.Category() != "footwear" {
		t.Errorf("expected category footwear, got %q", got.Filter.Category())
	}
	if got.Filter.MaxPrice() == nil || *got.Filter.MaxPrice() != 2000 {
		t.Errorf("expected max price 2000, got %v", got.Filter.MaxPrice())
	}
	if got.Residual != "" {
		t.Errorf("expected empty residual, got %q", got.Residual)
	}
}

func TestParse_VocabTermNotInsideWord(t *testing.T) {
	p := newTestParser()
	vocab := Vocabulary{Brands: []string{"zara"}}

	got := p.Parse("bazaramax deals", vocab)

	if got.Filter.Brand() != "" {
		t.Errorf("expected no brand match inside a larger word, got %q", got.Filter.Brand())
	}
}

func TestParse_UnparseableInputYieldsEmptyFilter(t *testing.T) {
	p := newTestParser()

	tests := []string{
		"",
		"    ",
		"comfortable running gear",
		"under the weather", // "the" is not a number
	}
	for _, query := range tests {
		got := p.Parse(query, Vocabulary{})
		if !got.Filter.IsEmpty() {
			t.Errorf("query %q: expected empty filter, got %q", query, got.Filter.Describe())
		}
	}
}

func TestParse_ResidualCollapsesWhitespace(t *testing.T) {
	p := newTestParser()

	got := p.Parse("  red   running  shoes under 900  ", Vocabulary{})

	if got.Residual != "running shoes" {
		t.Errorf("expected residual %q, got %q", "running shoes", got.Residual)
	}
}

func TestParse_Deterministic(t *testing.T) {
	p := newTestParser()
	vocab := Vocabulary{Brands: []string{"nike"}, Categories: []string{"clothing"}}

	first := p.Parse("blue Nike clothing between 500 and 1500", vocab)
	second := p.Parse("blue Nike clothing between 500 and 1500", vocab)

	if first.Residual != second.Residual {
		t.Errorf("residuals differ: %q vs %q", first.Residual, second.Residual)
	}
	if first.Filter.Describe() != second.Filter.Describe() {
		t.Errorf("filters differ: %q vs %q", first.Filter.Describe(), second.Filter.Describe())
	}
}

func TestParse_FilterUnaffectedByVocabOrder(t *testing.T) {
	p := newTestParser()

	a := p.Parse("zara shirts", Vocabulary{Brands: []string{"nike", "zara"}})
	b := p.Parse("zara shirts", Vocabulary{Brands: []string{"zara", "nike"}})

	if a.Filter.Brand() != "zara" || b.Filter.Brand() != "zara" {
		t.Errorf("expected brand zara regardless of vocab order, got %q and %q",
			a.Filter.Brand(), b.Filter.Brand())
	}
}

func TestParse_MergePrecedence(t *testing.T) {
	p := newTestParser()

	parsed := p.Parse("white shirts under 600", Vocabulary{})
	explicit := filter.New(nil, fp(400), "", "", "red")

	merged := parsed.Filter.Merge(explicit)

	if merged.Color() != "red" {
		t.Errorf("expected explicit color to win, got %q", merged.Color())
	}
	if merged.MaxPrice() == nil || *merged.MaxPrice() != 400 {
		t.Errorf("expected explicit max price 400, got %v", merged.MaxPrice())
	}
}
