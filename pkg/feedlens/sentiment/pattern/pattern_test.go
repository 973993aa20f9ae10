package pattern

import (
	"math"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAssess(t *testing.T) {
	a := New(nil)
	tests := []struct {
		text         string
		polarity     float64
		subjectivity float64
	}{
		{"terrible worst purchase ever.", -1.0, 1.0},
		{"amazing!", 0.75, 0.9},
		{"good", 0.7, 0.6},
		{"not good", -0.35, 0.6},
		{"not a good one", -0.35, 0.6},
		{"very good", 0.91, 0.78},
		{"slightly bad", -0.35, 0.335},
		{"good and bad", 0, 0.635},
		{"perfect!!", 1.0, 1.0},
		{"the box arrived", 0, 0},
		{"its fine does the job.", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		p, s := a.Assess(tt.text)
		if !approx(p, tt.polarity) || !approx(s, tt.subjectivity) {
			t.Errorf("Assess(%q) = (%.4f, %.4f), want (%.4f, %.4f)", tt.text, p, s, tt.polarity, tt.subjectivity)
		}
	}
}

func TestNegationReach(t *testing.T) {
	a := New(nil)
	// Filler words push the adjective beyond the negation's reach.
	p, _ := a.Assess("not that the box itself was good")
	if p <= 0 {
		t.Errorf("distant negation should not flip polarity, got %.4f", p)
	}
}

func TestIntensifierOnlyAffectsNextWord(t *testing.T) {
	a := New(nil)
	plain, _ := a.Assess("good")
	p, _ := a.Assess("very box good")
	if !approx(p, plain) {
		t.Errorf("intensifier should reset after a non-opinion word: %.4f vs %.4f", p, plain)
	}
}

func TestEstimateBounds(t *testing.T) {
	a := New(nil)
	for _, text := range []string{
		"extremely incredibly perfect!!!",
		"absolutely totally terrible!!!",
		"not not not bad",
	} {
		p, err := a.Estimate(text)
		if err != nil {
			t.Fatalf("Estimate(%q): %v", text, err)
		}
		if p.Score < -1 || p.Score > 1 || p.Subjectivity < 0 || p.Subjectivity > 1 {
			t.Errorf("Estimate(%q) = %+v out of bounds", text, p)
		}
	}
}

func TestCustomLexicon(t *testing.T) {
	lex := lexicon.New()
	lex.SetAdjective("stellar", lexicon.Adjective{Polarity: 0.9, Subjectivity: 0.8})
	a := New(lex)
	p, s := a.Assess("stellar support")
	if !approx(p, 0.9) || !approx(s, 0.8) {
		t.Errorf("Assess = (%v, %v), want (0.9, 0.8)", p, s)
	}
}
