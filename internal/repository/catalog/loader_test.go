package catalog

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

const testHeader = "uniq_id\tproduct_name\tproduct_category_tree\tretail_price\tdiscounted_price\timage\tdescription\tbrand\tproduct_specifications"

func loadTSV(t *testing.T, rows ...string) (*Store, Stats) {
	t.Helper()
	src := strings.Join(append([]string{testHeader}, rows...), "\n")
	store, stats, err := NewLoader(zap.NewNop()).Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store, stats
}

func TestLoad_ParsesRow(t *testing.T) {
	store, stats := loadTSV(t,
		"p1\tWhite Cotton Shirt\t"+
			`["Clothing >> Men >> Shirts"]`+
			"\t999\t550\t"+
			`["http://img.example.com/1.jpg", "http://img.example.com/2.jpg"]`+
			"\tA crisp white shirt\tZara\t"+
			`{"product_specification"=>[{"key"=>"Fabric", "value"=>"Cotton"}, {"key"=>"Fit", "value"=>"Slim"}]}`,
	)

	if stats.Loaded != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	p, err := store.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name() != "White Cotton Shirt" {
		t.Errorf("unexpected name %q", p.Name())
	}
	if p.Brand() != "Zara" {
		t.Errorf("unexpected brand %q", p.Brand())
	}
	if got := p.CategoryPath(); len(got) != 3 || got[0] != "Clothing" || got[2] != "Shirts" {
		t.Errorf("unexpected category path %v", got)
	}
	if p.RetailPrice() != 999 || p.DiscountedPrice() != 550 {
		t.Errorf("unexpected prices %v/%v", p.RetailPrice(), p.DiscountedPrice())
	}
	if len(p.ImageURLs()) != 2 {
		t.Errorf("expected 2 image urls, got %v", p.ImageURLs())
	}
	if p.Specifications()["Fabric"] != "Cotton" || p.Specifications()["Fit"] != "Slim" {
		t.Errorf("unexpected specifications %v", p.Specifications())
	}
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	store, stats := loadTSV(t,
		"p1\tGood Product\t[]\t100\t80\t\t\tNike\t",
		"\tMissing ID\t[]\t100\t80\t\t\tNike\t",              // empty id
		"p2\tBad Price\t[]\tabc\t80\t\t\tNike\t",             // unparseable retail price
		"p3\tInverted Prices\t[]\t100\t200\t\t\tNike\t",      // discounted > retail
		"p1\tDuplicate\t[]\t100\t80\t\t\tNike\t",             // duplicate id
		"p4\tThousands\t[]\t\"1,299\"\t\"1,099\"\t\t\tZara\t", // separators tolerated
	)

	if stats.Loaded != 2 {
		t.Errorf("expected 2 loaded, got %d", stats.Loaded)
	}
	if stats.Skipped != 4 {
		t.Errorf("expected 4 skipped, got %d", stats.Skipped)
	}

	p, err := store.Get("p4")
	if err != nil {
		t.Fatalf("Get p4: %v", err)
	}
	if p.RetailPrice() != 1299 || p.DiscountedPrice() != 1099 {
		t.Errorf("unexpected prices %v/%v", p.RetailPrice(), p.DiscountedPrice())
	}
}

func TestLoad_AllProductsSatisfyPriceInvariant(t *testing.T) {
	store, _ := loadTSV(t,
		"a\tA\t[]\t100\t50\t\t\tX\t",
		"b\tB\t[]\t100\t100\t\t\tX\t",
		"c\tC\t[]\t50\t100\t\t\tX\t", // violates invariant, must be skipped
	)

	for _, p := range store.Products() {
		if p.DiscountedPrice() > p.RetailPrice() {
			t.Errorf("product %s violates price invariant: %v > %v",
				p.ID(), p.DiscountedPrice(), p.RetailPrice())
		}
	}
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	src := "product_name\tbrand\nShirt\tZara"
	_, _, err := NewLoader(zap.NewNop()).Load(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected error for header without uniq_id")
	}
}

func TestLoad_SingleQuotedCategoryTree(t *testing.T) {
	store, _ := loadTSV(t,
		"p1\tSofa\t['Furniture >> Living Room Furniture']\t5000\t4000\t\t\tUrban\t",
	)
	p, err := store.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Category() != "Furniture" {
		t.Errorf("unexpected top category %q", p.Category())
	}
}

func TestLoad_EmptyCatalog(t *testing.T) {
	store, stats := loadTSV(t)
	if stats.Loaded != 0 || store.Len() != 0 {
		t.Errorf("expected empty catalog, got %d loaded", store.Len())
	}
	opts := store.FilterOptions()
	if len(opts.Brands) != 0 || opts.PriceRange.Min != 0 || opts.PriceRange.Max != 0 {
		t.Errorf("unexpected options for empty catalog: %+v", opts)
	}
}
