// Package vader adapts the VADER sentiment analyzer to sentiment.Estimator.
// Scores come from github.com/jonreiter/govader with the full VADER word
// list; a lexicon.Lexicon layers domain valences and boosters on top.
package vader

import (
	"github.com/jonreiter/govader"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
)

// Analyzer computes VADER compound scores. It only reads its tables after
// New returns and is safe for concurrent use.
type Analyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

// New creates an analyzer over the VADER lexicon. Valence and booster
// entries of lex override or extend the VADER tables; a nil lex leaves them
// untouched.
func New(lex *lexicon.Lexicon) *Analyzer {
	sia := govader.NewSentimentIntensityAnalyzer()
	if lex != nil {
		lex.EachValence(func(word string, v float64) {
			sia.Lexicon[word] = v
		})
		lex.EachBooster(func(word string, v float64) {
			sia.Constants.BoosterDict[word] = v
		})
	}
	return &Analyzer{sia: sia}
}

// Estimate implements sentiment.Estimator. Subjectivity is always 0.
func (a *Analyzer) Estimate(text string) (sentiment.Polarity, error) {
	return sentiment.Polarity{Score: a.Compound(text)}, nil
}

// Compound returns the normalized compound score of text in [-1, 1].
func (a *Analyzer) Compound(text string) float64 {
	return numeric.Clamp(a.sia.PolarityScores(text).Compound, -1, 1)
}

// Valence reports the valence the analyzer uses for a lowercase word.
func (a *Analyzer) Valence(word string) (float64, bool) {
	v, ok := a.sia.Lexicon[word]
	return v, ok
}
