package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/metrics"
)

// Catalog TSV column names (Flipkart product dump layout).
const (
	colID           = "uniq_id"
	colName         = "product_name"
	colCategoryTree = "product_category_tree"
	colRetailPrice  = "retail_price"
	colDiscounted   = "discounted_price"
	colImage        = "image"
	colDescription  = "description"
	colBrand        = "brand"
	colSpecs        = "product_specifications"
)

// specPairRegex extracts "key"=>"value" pairs from the serialized
// specification column.
var specPairRegex = regexp.MustCompile(`"key"=>"([^"]+)",\s*"value"=>"([^"]+)"`)

// Stats summarizes a catalog load.
type Stats struct {
	Loaded  int
	Skipped int
}

// Loader parses a TSV product source into an immutable Store.
// Malformed rows are skipped, logged, and counted; a single bad row never
// aborts the load.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a catalog loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the tab-separated catalog from r.
// It fails only on unreadable input or a header missing required columns.
func (l *Loader) Load(r io.Reader) (*Store, Stats, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read catalog header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		products []product.Product
		seen     = make(map[string]struct{})
		stats    Stats
		row      = 1 // header was row 1
	)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			l.skip(&stats, domain.NewMalformedRecord(row, err.Error()))
			continue
		}

		p, err := cols.parseRow(record, row)
		if err != nil {
			l.skip(&stats, err)
			continue
		}
		if _, dup := seen[p.ID()]; dup {
			l.skip(&stats, domain.NewMalformedRecord(row, "duplicate id "+p.ID()))
			continue
		}

		seen[p.ID()] = struct{}{}
		products = append(products, p)
		stats.Loaded++
		metrics.CatalogRowsTotal.WithLabelValues("loaded").Inc()
	}

	l.logger.Info("Catalog loaded",
		zap.Int("products", stats.Loaded),
		zap.Int("skipped", stats.Skipped),
	)

	return newStore(products), stats, nil
}

func (l *Loader) skip(stats *Stats, err error) {
	stats.Skipped++
	metrics.CatalogRowsTotal.WithLabelValues("skipped").Inc()
	l.logger.Warn("Skipping malformed catalog row", zap.Error(err))
}

// columns maps catalog column names to record indices. -1 means absent.
type columns struct {
	id, name, categoryTree, retailPrice, discounted int
	image, description, brand, specs                int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{
		id: -1, name: -1, categoryTree: -1, retailPrice: -1, discounted: -1,
		image: -1, description: -1, brand: -1, specs: -1,
	}
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case colID:
			cols.id = i
		case colName:
			cols.name = i
		case colCategoryTree:
			cols.categoryTree = i
		case colRetailPrice:
			cols.retailPrice = i
		case colDiscounted:
			cols.discounted = i
		case colImage:
			cols.image = i
		case colDescription:
			cols.description = i
		case colBrand:
			cols.brand = i
		case colSpecs:
			cols.specs = i
		}
	}
	if cols.id < 0 {
		return cols, fmt.Errorf("catalog header is missing column %q", colID)
	}
	if cols.name < 0 {
		return cols, fmt.Errorf("catalog header is missing column %q", colName)
	}
	return cols, nil
}

func (c columns) parseRow(record []string, row int) (product.Product, error) {
	id := c.field(record, c.id)
	if id == "" {
		return product.Product{}, domain.NewMalformedRecord(row, "empty id")
	}

	retail, err := parsePrice(c.field(record, c.retailPrice))
	if err != nil {
		return product.Product{}, domain.NewMalformedRecord(row, "retail price: "+err.Error())
	}
	discounted, err := parsePrice(c.field(record, c.discounted))
	if err != nil {
		return product.Product{}, domain.NewMalformedRecord(row, "discounted price: "+err.Error())
	}

	p, err := product.New(
		id,
		c.field(record, c.name),
		c.field(record, c.brand),
		parseCategoryPath(c.field(record, c.categoryTree)),
		c.field(record, c.description),
		retail,
		discounted,
		parseStringList(c.field(record, c.image)),
		parseSpecifications(c.field(record, c.specs)),
	)
	if err != nil {
		return product.Product{}, domain.NewMalformedRecord(row, err.Error())
	}
	return p, nil
}

func (c columns) field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parsePrice parses a price cell, tolerating thousands separators and an
// empty cell (treated as 0, matching the source dataset).
func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// parseCategoryPath extracts the category labels from the serialized tree,
// e.g. `["Furniture >> Living Room Furniture >> Sofas"]` ->
// [Furniture, Living Room Furniture, Sofas]. The dataset mixes single and
// double quotes; unparseable trees yield an empty path, not an error.
func parseCategoryPath(raw string) []string {
	first := firstListElement(raw)
	if first == "" {
		return nil
	}
	parts := strings.Split(first, ">>")
	path := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	return path
}

// parseStringList parses a serialized list like `["url1", "url2"]`.
func parseStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(normalizeQuotes(raw)), &list); err != nil {
		return nil
	}
	return list
}

// parseSpecifications extracts key/value pairs from the `"key"=>"value"`
// encoding used by the product_specifications column.
func parseSpecifications(raw string) map[string]string {
	matches := specPairRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	specs := make(map[string]string, len(matches))
	for _, m := range matches {
		specs[m[1]] = m[2]
	}
	return specs
}

func firstListElement(raw string) string {
	if raw == "" {
		return ""
	}
	var list []string
	if err := json.Unmarshal([]byte(normalizeQuotes(raw)), &list); err == nil && len(list) > 0 {
		return list[0]
	}
	// Fallback for rows that are not valid JSON even after quote
	// normalization: strip brackets and quotes by hand.
	s := strings.Trim(raw, "[]")
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func normalizeQuotes(raw string) string {
	if strings.Contains(raw, `"`) {
		return raw
	}
	return strings.ReplaceAll(raw, "'", `"`)
}
