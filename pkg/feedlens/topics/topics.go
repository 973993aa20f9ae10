// Package topics discovers topics in a feedback corpus: normalized texts are
// vectorized, clustered with K-means (or modelled with LDA), and each cluster
// is named from its highest-weighted terms.
package topics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
	"github.com/cognicore/feedlens/pkg/feedlens/textnorm"
)

// Method selects the topic model.
type Method string

const (
	MethodKMeans Method = "kmeans"
	MethodLDA    Method = "lda"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodKMeans, MethodLDA:
		return m, nil
	case "":
		return MethodKMeans, nil
	default:
		return "", fmt.Errorf("unknown topic method %q: %w", s, internalerr.ErrInvalidInput)
	}
}

const (
	DefaultTopics = 10
	// KeywordsPerTopic is how many top-weighted terms a topic keeps.
	KeywordsPerTopic = 10
	nameKeywords     = 3
	coherenceTerms   = 5
	minDocuments     = 2
)

// Keyword is a topic term with its centroid weight (K-means) or word
// probability (LDA).
type Keyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Topic is one discovered topic. ID is the cluster or component index within
// a single extraction and carries no meaning across runs.
type Topic struct {
	ID            int       `json:"topic_id"`
	Name          string    `json:"topic_name"`
	Keywords      []Keyword `json:"keywords"`
	DocumentCount int       `json:"document_count"`
	Coherence     float64   `json:"coherence_score"`
	Method        Method    `json:"method"`
	// Centroid is the K-means cluster center over Vocabulary.
	Centroid []float64 `json:"cluster_center,omitempty"`
	// Distribution is the LDA word distribution over Vocabulary.
	Distribution []float64 `json:"topic_distribution,omitempty"`
	Vocabulary   []string  `json:"-"`
}

// Terms returns the keyword terms in weight order.
func (t Topic) Terms() []string {
	out := make([]string, len(t.Keywords))
	for i, k := range t.Keywords {
		out[i] = k.Term
	}
	return out
}

// Options configures an Extractor.
type Options struct {
	Method      Method
	MaxFeatures int
	MinDF       int
	MaxDF       float64
	NGramMin    int
	NGramMax    int
	Seed        uint64
	NInit       int
	MaxIter     int
	LDAMaxIter  int
	Stops       *stoplist.Manager
	Normalizer  *textnorm.Normalizer
	Logger      *logging.Logger
}

// DefaultOptions returns the standard extraction settings.
func DefaultOptions() Options {
	return Options{
		Method:      MethodKMeans,
		MaxFeatures: DefaultMaxFeatures,
		MinDF:       DefaultMinDF,
		MaxDF:       DefaultMaxDF,
		NGramMin:    DefaultNGramMin,
		NGramMax:    DefaultNGramMax,
		Seed:        DefaultSeed,
		NInit:       DefaultNInit,
		MaxIter:     DefaultMaxIter,
		LDAMaxIter:  DefaultLDAMaxIter,
	}
}

// Extractor runs topic extraction. It is stateless between calls.
type Extractor struct {
	opts     Options
	norm     *textnorm.Normalizer
	vecStops *stoplist.Manager
	log      *logging.Logger
}

// NewExtractor creates an extractor. Unset numeric options take defaults;
// Seed is used as given.
func NewExtractor(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = def.MaxFeatures
	}
	if opts.MinDF <= 0 {
		opts.MinDF = def.MinDF
	}
	if opts.MaxDF <= 0 || opts.MaxDF > 1 {
		opts.MaxDF = def.MaxDF
	}
	if opts.NGramMin <= 0 {
		opts.NGramMin = def.NGramMin
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = max(def.NGramMax, opts.NGramMin)
	}
	if opts.NInit <= 0 {
		opts.NInit = def.NInit
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = def.MaxIter
	}
	if opts.LDAMaxIter <= 0 {
		opts.LDAMaxIter = def.LDAMaxIter
	}
	if opts.Stops == nil {
		opts.Stops = stoplist.Default()
	}
	norm := opts.Normalizer
	if norm == nil {
		norm = textnorm.New(opts.Stops)
	}
	return &Extractor{
		opts:     opts,
		norm:     norm,
		vecStops: opts.Stops.WithVectorizer(),
		log:      opts.Logger,
	}
}

// Method returns the configured topic model.
func (e *Extractor) Method() Method { return e.opts.Method }

// Extract discovers up to nTopics topics with the configured method, ordered
// by descending document count.
//
// Fewer than two non-empty normalized texts, or a vocabulary that degenerates
// under the document-frequency limits, yields an empty list and no error. An
// error is returned only when the numerical routine fails.
func (e *Extractor) Extract(texts []string, nTopics int) ([]Topic, error) {
	if e.opts.Method == MethodLDA {
		return e.ExtractLDA(texts, nTopics)
	}
	return e.ExtractKMeans(texts, nTopics)
}

// ExtractKMeans clusters TF-IDF vectors with K-means.
func (e *Extractor) ExtractKMeans(texts []string, nTopics int) ([]Topic, error) {
	docs, ok := e.prepare(texts, nTopics)
	if !ok {
		return []Topic{}, nil
	}

	e.log.Info("Performing TF-IDF vectorization...")
	m, ok := e.vectorize(docs, WeightTFIDF)
	if !ok {
		return []Topic{}, nil
	}

	k := min(nTopics, len(docs))
	e.log.Info("Performing K-means clustering with %d clusters...", k)
	res, err := KMeans(m.Rows, KMeansOptions{
		K:       k,
		NInit:   e.opts.NInit,
		MaxIter: e.opts.MaxIter,
		Tol:     DefaultTol,
		Seed:    e.opts.Seed,
	})
	if err != nil {
		return nil, e.fail(err)
	}

	sizes := make([]int, k)
	for _, l := range res.Labels {
		sizes[l]++
	}

	topics := make([]Topic, k)
	for c, center := range res.Centroids {
		t := buildTopic(c, m.Terms, center)
		t.DocumentCount = sizes[c]
		t.Method = MethodKMeans
		t.Centroid = center
		topics[c] = t
	}
	return e.finish(topics), nil
}

// ExtractLDA models raw term counts with LDA. Keyword weights are word
// probabilities and document counts come from each document's dominant topic.
func (e *Extractor) ExtractLDA(texts []string, nTopics int) ([]Topic, error) {
	docs, ok := e.prepare(texts, nTopics)
	if !ok {
		return []Topic{}, nil
	}

	e.log.Info("Performing count vectorization...")
	m, ok := e.vectorize(docs, WeightCount)
	if !ok {
		return []Topic{}, nil
	}

	k := min(nTopics, len(docs))
	e.log.Info("Fitting LDA with %d components...", k)
	res, err := LDA(m.Rows, LDAOptions{K: k, MaxIter: e.opts.LDAMaxIter, Seed: e.opts.Seed})
	if err != nil {
		return nil, e.fail(err)
	}

	sizes := make([]int, k)
	for _, dist := range res.DocTopic {
		sizes[argmax(dist)]++
	}

	topics := make([]Topic, k)
	for c, comp := range res.Components {
		dist := clone(comp)
		normalizeRow(dist)
		t := buildTopic(c, m.Terms, dist)
		t.DocumentCount = sizes[c]
		t.Method = MethodLDA
		t.Distribution = dist
		topics[c] = t
	}
	return e.finish(topics), nil
}

// prepare normalizes texts for topic modelling and drops empty results.
func (e *Extractor) prepare(texts []string, nTopics int) ([]string, bool) {
	if nTopics < 1 {
		e.log.Warn("Topic extraction needs at least one topic, got %d", nTopics)
		return nil, false
	}
	if len(texts) < minDocuments {
		e.log.Warn("Insufficient texts for topic extraction")
		return nil, false
	}

	e.log.Info("Preprocessing texts for topic extraction...")
	docs := make([]string, 0, len(texts))
	for _, t := range texts {
		if clean := e.norm.Normalize(t, textnorm.ModeTopic); strings.TrimSpace(clean) != "" {
			docs = append(docs, clean)
		}
	}
	if len(docs) < minDocuments {
		e.log.Warn("No valid texts after preprocessing")
		return nil, false
	}
	return docs, true
}

func (e *Extractor) vectorize(docs []string, w Weighting) (*Matrix, bool) {
	v := NewVectorizer(VectorizerOptions{
		MaxFeatures: e.opts.MaxFeatures,
		MinDF:       e.opts.MinDF,
		MaxDF:       e.opts.MaxDF,
		NGramMin:    e.opts.NGramMin,
		NGramMax:    e.opts.NGramMax,
		Weighting:   w,
		Stops:       e.vecStops,
	})
	m, err := v.FitTransform(docs)
	if err != nil {
		e.log.Error("Topic extraction failed: %v", err)
		return nil, false
	}
	return m, true
}

func (e *Extractor) fail(err error) error {
	e.log.Error("Topic extraction failed: %v", err)
	if errors.Is(err, internalerr.ErrNumerical) {
		return fmt.Errorf("extract topics: %w", err)
	}
	return fmt.Errorf("extract topics: %v: %w", err, internalerr.ErrNumerical)
}

// finish orders topics by descending document count, keeping cluster order
// on ties.
func (e *Extractor) finish(topics []Topic) []Topic {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].DocumentCount > topics[j].DocumentCount
	})
	e.log.Info("Successfully extracted %d topics", len(topics))
	return topics
}

// buildTopic names a topic from the highest-weighted terms of weights.
func buildTopic(id int, terms []string, weights []float64) Topic {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })
	if len(order) > KeywordsPerTopic {
		order = order[:KeywordsPerTopic]
	}

	keywords := make([]Keyword, len(order))
	for i, idx := range order {
		keywords[i] = Keyword{Term: terms[idx], Weight: weights[idx]}
	}

	names := make([]string, 0, nameKeywords)
	top := make([]float64, 0, coherenceTerms)
	for i, kw := range keywords {
		if i < nameKeywords {
			names = append(names, kw.Term)
		}
		if i < coherenceTerms {
			top = append(top, kw.Weight)
		}
	}

	return Topic{
		ID:         id,
		Name:       strings.Join(names, " + "),
		Keywords:   keywords,
		Coherence:  numeric.Mean(top),
		Vocabulary: terms,
	}
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
