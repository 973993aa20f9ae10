// Package sentiment combines two independent polarity estimators into one
// score, label and confidence per feedback text.
package sentiment

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/textnorm"
)

// Label is the categorical sentiment of a text.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Label thresholds are fixed; scores strictly between them are Neutral.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Default estimator weights.
const (
	DefaultCompoundWeight = 0.6
	DefaultPolarityWeight = 0.4
	DefaultBatchSize      = 100
)

const precision = 4

// Polarity is the output of one estimator. Score is in [-1, 1] and
// Subjectivity in [0, 1]; estimators without a subjectivity notion report 0.
type Polarity struct {
	Score        float64
	Subjectivity float64
}

// Estimator produces a polarity estimate for normalized text.
type Estimator interface {
	Estimate(text string) (Polarity, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(text string) (Polarity, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(text string) (Polarity, error) { return f(text) }

// Result is the sentiment of one text. All values are rounded to four
// decimals and Label is derived from the rounded Score.
type Result struct {
	Score        float64 `json:"sentiment_score"`
	Label        Label   `json:"sentiment_label"`
	Confidence   float64 `json:"confidence"`
	Compound     float64 `json:"vader_compound"`
	Polarity     float64 `json:"textblob_polarity"`
	Subjectivity float64 `json:"textblob_subjectivity"`
}

// BatchResult holds one Result per input text, in input order.
type BatchResult struct {
	Results []Result
	Errors  int
}

// LabelFor maps a combined score to its label.
func LabelFor(score float64) Label {
	switch {
	case score >= PositiveThreshold:
		return Positive
	case score <= NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Options configures a Scorer. Zero values select defaults; weights are only
// defaulted when both are zero.
type Options struct {
	Normalizer     *textnorm.Normalizer
	CompoundWeight float64
	PolarityWeight float64
	BatchSize      int
	Workers        int
	Logger         *logging.Logger
}

// Scorer combines a rule-based compound estimator with a lexicon polarity
// estimator. It holds no per-call state and is safe for concurrent use.
type Scorer struct {
	compound Estimator
	polarity Estimator
	norm     *textnorm.Normalizer
	cw, pw   float64
	batch    int
	workers  int
	log      *logging.Logger
}

// NewScorer creates a scorer over the two estimators.
func NewScorer(compound, polarity Estimator, opts Options) (*Scorer, error) {
	if compound == nil || polarity == nil {
		return nil, fmt.Errorf("sentiment: both estimators are required: %w", internalerr.ErrInvalidInput)
	}
	if opts.Normalizer == nil {
		opts.Normalizer = textnorm.New(nil)
	}
	if opts.CompoundWeight == 0 && opts.PolarityWeight == 0 {
		opts.CompoundWeight = DefaultCompoundWeight
		opts.PolarityWeight = DefaultPolarityWeight
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Scorer{
		compound: compound,
		polarity: polarity,
		norm:     opts.Normalizer,
		cw:       opts.CompoundWeight,
		pw:       opts.PolarityWeight,
		batch:    opts.BatchSize,
		workers:  opts.Workers,
		log:      opts.Logger,
	}, nil
}

// Weights returns the configured compound and polarity weights.
func (s *Scorer) Weights() (compound, polarity float64) {
	return s.cw, s.pw
}

// Score scores one text with the configured weights. It never fails: an
// estimator error or panic yields the zero Neutral result.
func (s *Scorer) Score(text string) Result {
	return s.ScoreWeighted(text, s.cw, s.pw)
}

// ScoreWeighted scores one text with explicit weights. The weights are
// applied as given and need not sum to one.
func (s *Scorer) ScoreWeighted(text string, compoundWeight, polarityWeight float64) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("sentiment: scoring panicked, using neutral result: %v", p)
			r = zeroResult()
		}
	}()
	r, err := s.score(text, compoundWeight, polarityWeight)
	if err != nil {
		s.log.Warn("sentiment: scoring failed, using neutral result: %v", err)
		return zeroResult()
	}
	return r
}

// ScoreBatch scores every text independently. A failure on one text
// substitutes the zero Neutral result and is counted in Errors; the batch
// always returns len(texts) results in input order.
func (s *Scorer) ScoreBatch(texts []string) BatchResult {
	out := BatchResult{Results: make([]Result, len(texts))}
	if len(texts) == 0 {
		return out
	}

	var errCount int64
	for start := 0; start < len(texts); start += s.batch {
		end := min(start+s.batch, len(texts))
		s.scoreRange(texts, out.Results, start, end, &errCount)
		s.log.Info("Processed %d/%d texts", end, len(texts))
	}
	out.Errors = int(errCount)
	return out
}

func (s *Scorer) scoreRange(texts []string, results []Result, start, end int, errCount *int64) {
	if s.workers == 1 || end-start == 1 {
		for i := start; i < end; i++ {
			results[i] = s.safeScore(i, texts[i], errCount)
		}
		return
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for range min(s.workers, end-start) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = s.safeScore(i, texts[i], errCount)
			}
		}()
	}
	for i := start; i < end; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

func (s *Scorer) safeScore(i int, text string, errCount *int64) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("sentiment: text %d panicked: %v", i, p)
			atomic.AddInt64(errCount, 1)
			r = zeroResult()
		}
	}()
	r, err := s.score(text, s.cw, s.pw)
	if err != nil {
		s.log.Warn("sentiment: text %d failed: %v", i, err)
		atomic.AddInt64(errCount, 1)
		return zeroResult()
	}
	return r
}

func (s *Scorer) score(text string, cw, pw float64) (Result, error) {
	clean := s.norm.Normalize(text, textnorm.ModeSentiment)
	if clean == "" {
		return zeroResult(), nil
	}

	c, err := s.compound.Estimate(clean)
	if err != nil {
		return Result{}, fmt.Errorf("compound estimator: %w", err)
	}
	p, err := s.polarity.Estimate(clean)
	if err != nil {
		return Result{}, fmt.Errorf("polarity estimator: %w", err)
	}
	if !numeric.Finite(c.Score, p.Score, p.Subjectivity) {
		return Result{}, fmt.Errorf("non-finite estimate: %w", internalerr.ErrNumerical)
	}

	compound := numeric.Clamp(c.Score, -1, 1)
	polarity := numeric.Clamp(p.Score, -1, 1)
	combined := numeric.Clamp(cw*compound+pw*polarity, -1, 1)
	agreement := 1 - math.Abs(compound-polarity)/2
	confidence := math.Min(math.Abs(combined)*agreement, 1)

	score := numeric.Round(combined, precision)
	return Result{
		Score:        score,
		Label:        LabelFor(score),
		Confidence:   numeric.Round(confidence, precision),
		Compound:     numeric.Round(compound, precision),
		Polarity:     numeric.Round(polarity, precision),
		Subjectivity: numeric.Round(numeric.Clamp(p.Subjectivity, 0, 1), precision),
	}, nil
}

func zeroResult() Result {
	return Result{Label: Neutral}
}
