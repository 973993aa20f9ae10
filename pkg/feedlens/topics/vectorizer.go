package topics

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
)

// Weighting selects how document-term cells are filled.
type Weighting int

const (
	// WeightTFIDF fills cells with smoothed TF-IDF and L2-normalises rows.
	WeightTFIDF Weighting = iota
	// WeightCount fills cells with raw term counts.
	WeightCount
)

// Vectorizer defaults.
const (
	DefaultMaxFeatures = 100
	DefaultMinDF       = 2
	DefaultMaxDF       = 0.95
	DefaultNGramMin    = 1
	DefaultNGramMax    = 2
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorization failures. Both wrap internalerr.ErrInsufficientData.
var (
	ErrEmptyVocabulary = fmt.Errorf("empty vocabulary, documents only contain stop words: %w", internalerr.ErrInsufficientData)
	ErrNoTermsRemain   = fmt.Errorf("after pruning no terms remain, lower min_df or raise max_df: %w", internalerr.ErrInsufficientData)
	ErrDFRange         = fmt.Errorf("max_df corresponds to fewer documents than min_df: %w", internalerr.ErrInsufficientData)
)

// VectorizerOptions configures a Vectorizer. MinDF is an absolute document
// count and MaxDF a ratio of the corpus size.
type VectorizerOptions struct {
	MaxFeatures int
	MinDF       int
	MaxDF       float64
	NGramMin    int
	NGramMax    int
	Weighting   Weighting
	// Stops removes tokens before n-grams are formed.
	Stops *stoplist.Manager
}

// Matrix is a dense document-term matrix. Terms are sorted alphabetically and
// index the columns of every row.
type Matrix struct {
	Terms []string
	Rows  [][]float64
}

// Vectorizer turns normalized documents into a document-term matrix.
type Vectorizer struct {
	opts VectorizerOptions
}

// NewVectorizer creates a vectorizer, filling unset options with defaults.
func NewVectorizer(opts VectorizerOptions) *Vectorizer {
	if opts.MaxFeatures < 0 {
		opts.MaxFeatures = 0
	}
	if opts.MinDF <= 0 {
		opts.MinDF = 1
	}
	if opts.MaxDF <= 0 || opts.MaxDF > 1 {
		opts.MaxDF = 1
	}
	if opts.NGramMin <= 0 {
		opts.NGramMin = DefaultNGramMin
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = opts.NGramMin
	}
	return &Vectorizer{opts: opts}
}

// Analyze splits a document into its n-gram features.
func (v *Vectorizer) Analyze(doc string) []string {
	var tokens []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(doc), -1) {
		if v.opts.Stops != nil && v.opts.Stops.IsStop(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}

	var grams []string
	for n := v.opts.NGramMin; n <= v.opts.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// FitTransform learns the vocabulary of docs and returns their matrix.
//
// Terms with document frequency below MinDF or above MaxDF*len(docs) are
// pruned; if more than MaxFeatures remain, the most frequent across the
// corpus are kept, ties broken alphabetically.
func (v *Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	tf := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, g := range v.Analyze(doc) {
			c[g]++
		}
		for g, n := range c {
			df[g]++
			tf[g] += n
		}
		counts[i] = c
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	maxDocs := v.opts.MaxDF * float64(len(docs))
	if maxDocs < float64(v.opts.MinDF) {
		return nil, ErrDFRange
	}

	terms := make([]string, 0, len(df))
	for g, n := range df {
		if n >= v.opts.MinDF && float64(n) <= maxDocs {
			terms = append(terms, g)
		}
	}
	sort.Strings(terms)

	if v.opts.MaxFeatures > 0 && len(terms) > v.opts.MaxFeatures {
		sort.SliceStable(terms, func(i, j int) bool { return tf[terms[i]] > tf[terms[j]] })
		terms = terms[:v.opts.MaxFeatures]
		sort.Strings(terms)
	}
	if len(terms) == 0 {
		return nil, ErrNoTermsRemain
	}

	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}

	rows := make([][]float64, len(docs))
	for i, c := range counts {
		row := make([]float64, len(terms))
		for g, n := range c {
			if j, ok := index[g]; ok {
				row[j] = float64(n)
			}
		}
		rows[i] = row
	}

	if v.opts.Weighting == WeightTFIDF {
		applyTFIDF(rows, terms, df, len(docs))
	}
	return &Matrix{Terms: terms, Rows: rows}, nil
}

// applyTFIDF scales counts by smoothed idf, ln((1+n)/(1+df))+1, and
// L2-normalises each row. All-zero rows stay zero.
func applyTFIDF(rows [][]float64, terms []string, df map[string]int, n int) {
	idf := make([]float64, len(terms))
	for j, t := range terms {
		idf[j] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}
	for _, row := range rows {
		var norm float64
		for j := range row {
			row[j] *= idf[j]
			norm += row[j] * row[j]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for j := range row {
			row[j] /= norm
		}
	}
}
