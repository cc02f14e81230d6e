// Package tfidf is the in-process embedding provider: hashed TF-IDF over
// unigrams and bigrams.
//
// It satisfies the domain.Embedder contract without any external service:
// deterministic for a fixed dimension and fitted corpus, total over any
// input (the empty string embeds to the zero vector), and fixed-dimension
// for queries and documents alike.
package tfidf

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/shopsense/shopsense/internal/domain"
)

// DefaultDimensions is the hashed feature space size used when the config
// does not override it.
const DefaultDimensions = 256

// stopwords is a minimal English stop-word list; removed before hashing so
// frequent glue words do not dominate the vectors.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
}

// Vectorizer learns inverse document frequencies from a corpus and embeds
// text into a fixed-dimension hashed TF-IDF space. A Vectorizer is immutable
// after Fit; Embed is safe for concurrent use.
type Vectorizer struct {
	dim  int
	idf  []float64
	docs int
}

// New creates an unfitted vectorizer. Before Fit, Embed falls back to plain
// term frequencies (idf = 1), which keeps the contract total.
func New(dim int) *Vectorizer {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &Vectorizer{dim: dim}
}

// Dimensions returns the embedding dimension.
func (v *Vectorizer) Dimensions() int { return v.dim }

// Fit learns document frequencies from the corpus and returns a new fitted
// vectorizer; the receiver is left untouched. idf uses the smoothed form
// log((1+N)/(1+df)) + 1 so unseen buckets still carry weight.
func (v *Vectorizer) Fit(corpus []string) *Vectorizer {
	df := make([]int, v.dim)
	for _, text := range corpus {
		seen := make(map[int]struct{})
		for _, tok := range tokenize(text) {
			seen[v.bucket(tok)] = struct{}{}
		}
		for b := range seen {
			df[b]++
		}
	}

	n := len(corpus)
	idf := make([]float64, v.dim)
	for b := range idf {
		idf[b] = math.Log(float64(1+n)/float64(1+df[b])) + 1
	}

	return &Vectorizer{dim: v.dim, idf: idf, docs: n}
}

// Embed implements domain.Embedder. It never fails: unknown or empty input
// yields a well-defined (possibly zero) vector.
func (v *Vectorizer) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, v.dim)

	for _, tok := range tokenize(text) {
		b := v.bucket(tok)
		w := 1.0
		if v.idf != nil {
			w = v.idf[b]
		}
		vec[b] += float32(w)
	}

	normalize(vec)
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// BatchEmbed implements domain.BatchEmbedder for index builds.
func (v *Vectorizer) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, v, texts)
}

func (v *Vectorizer) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(v.dim))
}

// tokenize lowercases, splits on non-alphanumeric runes, drops stopwords,
// and emits unigrams plus adjacent bigrams.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}

	tokens := make([]string, 0, 2*len(kept))
	tokens = append(tokens, kept...)
	for i := 0; i+1 < len(kept); i++ {
		tokens = append(tokens, kept[i]+" "+kept[i+1])
	}
	return tokens
}

func normalize(vec []float32) {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
