package topics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
)

// LDA defaults, matching online variational Bayes as commonly configured.
const (
	DefaultLDAMaxIter       = 10
	DefaultLearningOffset   = 10.0
	DefaultLearningDecay    = 0.7
	DefaultLDABatchSize     = 128
	DefaultMaxDocUpdateIter = 100
	DefaultMeanChangeTol    = 1e-3
)

const (
	gammaShape = 100.0
	gammaScale = 1.0 / 100.0
)

var epsilon = math.Nextafter(1, 2) - 1

// LDAOptions configures an online LDA fit. Zero priors select 1/K.
type LDAOptions struct {
	K                int
	MaxIter          int
	LearningOffset   float64
	LearningDecay    float64
	BatchSize        int
	MaxDocUpdateIter int
	MeanChangeTol    float64
	DocTopicPrior    float64
	TopicWordPrior   float64
	Seed             uint64
}

// LDAResult holds the fitted model.
type LDAResult struct {
	// Components holds unnormalised topic-word weights, K x vocabulary.
	Components [][]float64
	// DocTopic holds each document's normalised topic distribution.
	DocTopic [][]float64
}

type ldaModel struct {
	opts       LDAOptions
	r          *rand.Rand
	components [][]float64
	expTopic   [][]float64
	batchIter  int
}

// LDA fits a topic model to a document-term count matrix with online
// variational Bayes and infers each document's topic distribution.
func LDA(counts [][]float64, opts LDAOptions) (*LDAResult, error) {
	if len(counts) == 0 || len(counts[0]) == 0 {
		return nil, fmt.Errorf("lda: empty matrix: %w", internalerr.ErrInvalidInput)
	}
	if opts.K < 1 {
		return nil, fmt.Errorf("lda: k=%d must be positive: %w", opts.K, internalerr.ErrInvalidInput)
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultLDAMaxIter
	}
	if opts.LearningOffset <= 0 {
		opts.LearningOffset = DefaultLearningOffset
	}
	if opts.LearningDecay <= 0 {
		opts.LearningDecay = DefaultLearningDecay
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultLDABatchSize
	}
	if opts.MaxDocUpdateIter <= 0 {
		opts.MaxDocUpdateIter = DefaultMaxDocUpdateIter
	}
	if opts.MeanChangeTol <= 0 {
		opts.MeanChangeTol = DefaultMeanChangeTol
	}
	if opts.DocTopicPrior <= 0 {
		opts.DocTopicPrior = 1 / float64(opts.K)
	}
	if opts.TopicWordPrior <= 0 {
		opts.TopicWordPrior = 1 / float64(opts.K)
	}

	m := &ldaModel{opts: opts, r: newRand(opts.Seed, 0), batchIter: 1}
	m.init(len(counts[0]))

	n := len(counts)
	for it := 0; it < opts.MaxIter; it++ {
		for start := 0; start < n; start += opts.BatchSize {
			end := min(start+opts.BatchSize, n)
			m.emStep(counts[start:end], n)
		}
	}

	docTopic, _ := m.eStep(counts, false, false)
	for _, row := range docTopic {
		normalizeRow(row)
	}

	if !finiteMatrix(m.components) || !finiteMatrix(docTopic) {
		return nil, fmt.Errorf("lda: non-finite parameters: %w", internalerr.ErrNumerical)
	}
	return &LDAResult{Components: m.components, DocTopic: docTopic}, nil
}

func (m *ldaModel) init(vocab int) {
	m.components = make([][]float64, m.opts.K)
	for k := range m.components {
		row := make([]float64, vocab)
		for w := range row {
			row[w] = sampleGamma(m.r, gammaShape, gammaScale)
		}
		m.components[k] = row
	}
	m.expTopic = expDirichlet(m.components)
}

func (m *ldaModel) emStep(batch [][]float64, totalDocs int) {
	_, stats := m.eStep(batch, true, true)

	weight := math.Pow(m.opts.LearningOffset+float64(m.batchIter), -m.opts.LearningDecay)
	ratio := float64(totalDocs) / float64(len(batch))
	for k, row := range m.components {
		for w := range row {
			row[w] = (1-weight)*row[w] + weight*(m.opts.TopicWordPrior+ratio*stats[k][w])
		}
	}
	m.expTopic = expDirichlet(m.components)
	m.batchIter++
}

// eStep infers document-topic parameters for a batch. With collect set it
// also returns the sufficient statistics for the topic-word update.
func (m *ldaModel) eStep(batch [][]float64, randomInit, collect bool) ([][]float64, [][]float64) {
	k := m.opts.K
	alpha := m.opts.DocTopicPrior

	var stats [][]float64
	if collect {
		stats = make([][]float64, k)
		for t := range stats {
			stats[t] = make([]float64, len(m.components[0]))
		}
	}

	docTopic := make([][]float64, len(batch))
	for d, row := range batch {
		gamma := make([]float64, k)
		for t := range gamma {
			if randomInit {
				gamma[t] = sampleGamma(m.r, gammaShape, gammaScale)
			} else {
				gamma[t] = 1
			}
		}
		expDoc := expDirichletRow(gamma, 0)

		var ids []int
		for w, c := range row {
			if c > 0 {
				ids = append(ids, w)
			}
		}
		norm := make([]float64, len(ids))

		for it := 0; it < m.opts.MaxDocUpdateIter; it++ {
			last := clone(gamma)
			m.phiNorm(expDoc, ids, norm)
			for t := range gamma {
				var dot float64
				for j, w := range ids {
					dot += row[w] / norm[j] * m.expTopic[t][w]
				}
				gamma[t] = expDoc[t] * dot
			}
			expDoc = expDirichletRow(gamma, alpha)
			if meanChange(last, gamma) < m.opts.MeanChangeTol {
				break
			}
		}
		docTopic[d] = gamma

		if collect {
			m.phiNorm(expDoc, ids, norm)
			for t := range stats {
				for j, w := range ids {
					stats[t][w] += expDoc[t] * row[w] / norm[j]
				}
			}
		}
	}

	if collect {
		for t := range stats {
			for w := range stats[t] {
				stats[t][w] *= m.expTopic[t][w]
			}
		}
	}
	return docTopic, stats
}

func (m *ldaModel) phiNorm(expDoc []float64, ids []int, norm []float64) {
	for j, w := range ids {
		var s float64
		for t := range expDoc {
			s += expDoc[t] * m.expTopic[t][w]
		}
		norm[j] = s + epsilon
	}
}

// expDirichletRow adds prior to x in place and returns exp(E[log θ]) for a
// Dirichlet with parameters x.
func expDirichletRow(x []float64, prior float64) []float64 {
	var sum float64
	for i := range x {
		x[i] += prior
		sum += x[i]
	}
	psiSum := digamma(sum)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Exp(digamma(v) - psiSum)
	}
	return out
}

func expDirichlet(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = expDirichletRow(clone(row), 0)
	}
	return out
}

func meanChange(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += math.Abs(a[i] - b[i])
	}
	return s / float64(len(a))
}

func normalizeRow(row []float64) {
	var sum float64
	for _, x := range row {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range row {
		row[i] /= sum
	}
}
