// Package parser extracts structured filters from free-text queries.
// A fixed set of lexical rules recognizes price phrases, colors, and
// known brand and category tokens; everything else stays in the residual
// text handed to the embedder. Parsing never fails: an unrecognized query
// simply yields an empty filter.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain/search/filter"
)

// colors is the fixed vocabulary of recognized color tokens.
var colors = []string{
	"white", "black", "red", "blue", "green", "yellow",
	"purple", "pink", "orange", "brown", "grey", "gray", "navy",
}

// number tolerates an optional currency marker and thousands separators.
const number = `(?:rs\.?|inr|[$€£₹])?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`

var (
	reBetween = regexp.MustCompile(`(?i)\bbetween\s+` + number + `\s+and\s+` + number)
	reMax     = regexp.MustCompile(`(?i)\b(?:under|below|less\s+than|cheaper\s+than)\s+` + number)
	reMin     = regexp.MustCompile(`(?i)\b(?:over|above|more\s+than)\s+` + number)
	reColor   = regexp.MustCompile(`(?i)\b(` + strings.Join(colors, "|") + `)\b`)
)

// Vocabulary supplies the known brand and category tokens from the current
// catalog snapshot. Values are expected lowercased.
type Vocabulary struct {
	Brands     []string
	Categories []string
}

// Parsed is the outcome of one parse: the extracted filter and the query
// text with all recognized phrases removed.
type Parsed struct {
	Filter   filter.Filter
	Residual string
}

// Service is the lexical query parser.
type Service struct {
	logger *zap.Logger
}

// NewService creates a query parser.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// span marks a matched region of the input to strip from the residual.
type span struct{ start, end int }

// priceMatch is one candidate price phrase with its position in the text.
type priceMatch struct {
	span
	minPrice *float64
	maxPrice *float64
}

// Parse extracts a filter from free text. When several price phrases match,
// the leftmost one wins and the others stay in the residual text.
func (s *Service) Parse(text string, vocab Vocabulary) Parsed {
	var spans []span

	parsedMin, parsedMax, priceSpan := extractPrice(text)
	if priceSpan != nil {
		spans = append(spans, *priceSpan)
	}

	color := ""
	if loc := reColor.FindStringIndex(text); loc != nil {
		color = strings.ToLower(text[loc[0]:loc[1]])
		spans = append(spans, span{loc[0], loc[1]})
	}

	brand, brandSpan := matchVocabTerm(text, vocab.Brands)
	if brandSpan != nil {
		spans = append(spans, *brandSpan)
	}
	category, categorySpan := matchVocabTerm(text, vocab.Categories)
	if categorySpan != nil {
		spans = append(spans, *categorySpan)
	}

	f := filter.New(parsedMin, parsedMax, brand, category, color)

	residual := stripSpans(text, spans)

	if !f.IsEmpty() {
		s.logger.Debug("Parsed query filters",
			zap.String("filters", f.Describe()),
			zap.String("residual", residual),
		)
	}

	return Parsed{Filter: f, Residual: residual}
}

// extractPrice finds all price phrases and keeps the leftmost.
func extractPrice(text string) (minPrice, maxPrice *float64, matched *span) {
	var best *priceMatch

	if loc := reBetween.FindStringSubmatchIndex(text); loc != nil {
		lo := parsePrice(text[loc[2]:loc[3]])
		hi := parsePrice(text[loc[4]:loc[5]])
		best = considerPrice(best, priceMatch{
			span:     span{loc[0], loc[1]},
			minPrice: lo,
			maxPrice: hi,
		})
	}
	if loc := reMax.FindStringSubmatchIndex(text); loc != nil {
		best = considerPrice(best, priceMatch{
			span:     span{loc[0], loc[1]},
			maxPrice: parsePrice(text[loc[2]:loc[3]]),
		})
	}
	if loc := reMin.FindStringSubmatchIndex(text); loc != nil {
		best = considerPrice(best, priceMatch{
			span:     span{loc[0], loc[1]},
			minPrice: parsePrice(text[loc[2]:loc[3]]),
		})
	}

	if best == nil {
		return nil, nil, nil
	}
	sp := best.span
	return best.minPrice, best.maxPrice, &sp
}

// considerPrice keeps the leftmost candidate; on a shared start position the
// longer phrase wins ("between 100 and 200" over a nested match).
func considerPrice(best *priceMatch, cand priceMatch) *priceMatch {
	if best == nil ||
		cand.start < best.start ||
		(cand.start == best.start && cand.end > best.end) {
		return &cand
	}
	return best
}

func parsePrice(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// matchVocabTerm finds the leftmost whole-word occurrence of any vocabulary
// term. Ties on position prefer the longer term.
func matchVocabTerm(text string, terms []string) (string, *span) {
	lower := strings.ToLower(text)

	var found string
	var best *span
	for _, term := range terms {
		if term == "" {
			continue
		}
		pos := indexWholeWord(lower, term)
		if pos < 0 {
			continue
		}
		end := pos + len(term)
		if best == nil || pos < best.start || (pos == best.start && end > best.end) {
			found = term
			best = &span{pos, end}
		}
	}
	return found, best
}

// indexWholeWord returns the first occurrence of term in text that is not
// embedded inside a larger alphanumeric word, or -1.
func indexWholeWord(text, term string) int {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return -1
		}
		pos := offset + i
		end := pos + len(term)
		if boundaryBefore(text, pos) && boundaryAfter(text, end) {
			return pos
		}
		offset = pos + 1
	}
	return -1
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	return !isWordByte(text[pos-1])
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	return !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

// stripSpans removes the matched regions and collapses whitespace.
func stripSpans(text string, spans []span) string {
	if len(spans) == 0 {
		return strings.Join(strings.Fields(text), " ")
	}

	keep := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		covered := false
		for _, sp := range spans {
			if i >= sp.start && i < sp.end {
				covered = true
				break
			}
		}
		if !covered {
			keep = append(keep, text[i])
		}
	}
	return strings.Join(strings.Fields(string(keep)), " ")
}
