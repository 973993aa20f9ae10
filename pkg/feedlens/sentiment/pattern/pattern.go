// Package pattern implements an adjective-lexicon polarity estimator in the
// style of the Pattern library: each opinion word is assessed, modified by a
// preceding intensifier or negation, and the assessments are averaged into a
// polarity and a subjectivity.
package pattern

import (
	"strings"
	"unicode"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
)

const (
	negationScalar    = -0.5
	exclamationScalar = 1.25
	// negationReach is how many following words a negation can affect.
	negationReach = 3
)

// Analyzer assesses polarity and subjectivity from an adjective lexicon.
type Analyzer struct {
	lex *lexicon.Lexicon
}

// New creates an analyzer. A nil lexicon selects lexicon.Default().
func New(lex *lexicon.Lexicon) *Analyzer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Analyzer{lex: lex}
}

// Estimate implements sentiment.Estimator.
func (a *Analyzer) Estimate(text string) (sentiment.Polarity, error) {
	p, s := a.Assess(text)
	return sentiment.Polarity{Score: p, Subjectivity: s}, nil
}

type assessment struct {
	polarity     float64
	subjectivity float64
}

// Assess returns the mean polarity in [-1, 1] and mean subjectivity in
// [0, 1] over every opinion word. Text with no opinion words is 0, 0.
func (a *Analyzer) Assess(text string) (polarity, subjectivity float64) {
	var found []assessment
	mult := 1.0
	negated := 0

	for _, field := range strings.Fields(text) {
		w := strings.TrimFunc(field, unicode.IsPunct)
		switch {
		case w == "":
		case isIntensifier(a.lex, w):
			m, _ := a.lex.Intensifier(w)
			mult *= m
		case a.lex.IsNegation(w):
			negated = negationReach
			mult = 1
		default:
			adj, ok := a.lex.Adjective(w)
			if !ok {
				mult = 1
				if negated > 0 {
					negated--
				}
				break
			}
			p := numeric.Clamp(adj.Polarity*mult, -1, 1)
			s := numeric.Clamp(adj.Subjectivity*mult, 0, 1)
			if negated > 0 {
				p *= negationScalar
				negated = 0
			}
			found = append(found, assessment{polarity: p, subjectivity: s})
			mult = 1
		}

		if strings.Contains(field, "!") && len(found) > 0 {
			last := &found[len(found)-1]
			last.polarity = numeric.Clamp(last.polarity*exclamationScalar, -1, 1)
		}
	}

	if len(found) == 0 {
		return 0, 0
	}
	for _, f := range found {
		polarity += f.polarity
		subjectivity += f.subjectivity
	}
	n := float64(len(found))
	return numeric.Clamp(polarity/n, -1, 1), numeric.Clamp(subjectivity/n, 0, 1)
}

func isIntensifier(lex *lexicon.Lexicon, w string) bool {
	_, ok := lex.Intensifier(w)
	return ok
}
