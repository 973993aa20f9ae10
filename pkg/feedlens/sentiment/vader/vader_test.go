package vader

import (
	"math"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
)

func TestCompoundKnownValues(t *testing.T) {
	a := New(nil)
	tests := []struct {
		text string
		want float64
	}{
		{"good", 0.4404},
		{"not good", -0.3412},
		{"terrible worst purchase ever.", -0.8020},
		{"i love this product! amazing!", 0.8619},
	}
	for _, tt := range tests {
		if got := a.Compound(tt.text); math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("Compound(%q) = %.4f, want %.4f", tt.text, got, tt.want)
		}
	}
}

func TestCompoundNeutral(t *testing.T) {
	a := New(nil)
	for _, text := range []string{"", "   ", "the box arrived", "the package arrived on tuesday"} {
		if got := a.Compound(text); got != 0 {
			t.Errorf("Compound(%q) = %v, want 0", text, got)
		}
	}
}

func TestCompoundRules(t *testing.T) {
	a := New(nil)
	tests := []struct {
		name    string
		greater string
		lesser  string
	}{
		{"booster", "the food was very good", "the food was good"},
		{"dampener", "the food was good", "the food was slightly good"},
		{"exclamation", "good!!!", "good"},
		{"questions", "good??", "good"},
		{"negative booster", "the food was bad", "the food was extremely bad"},
		{"contrast after but", "terrible but good", "good but terrible"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, l := a.Compound(tt.greater), a.Compound(tt.lesser)
			if g <= l {
				t.Errorf("Compound(%q)=%.4f should exceed Compound(%q)=%.4f", tt.greater, g, tt.lesser, l)
			}
		})
	}
}

func TestCompoundSigns(t *testing.T) {
	a := New(nil)
	tests := []struct {
		text     string
		positive bool
	}{
		{"the staff was not helpful", false},
		{"the app isnt bad", true},
		{"good but terrible", false},
		{"terrible but good", true},
		{"least good", false},
		{"at least good", true},
	}
	for _, tt := range tests {
		got := a.Compound(tt.text)
		if (got > 0) != tt.positive || got == 0 {
			t.Errorf("Compound(%q) = %.4f, want positive=%v", tt.text, got, tt.positive)
		}
	}
}

func TestSingleQuestionMarkHasNoEffect(t *testing.T) {
	a := New(nil)
	if a.Compound("good?") != a.Compound("good") {
		t.Error("a single question mark should not change the score")
	}
}

func TestKindOfIsNotValenced(t *testing.T) {
	a := New(nil)
	if a.Compound("kind of good") != a.Compound("good") {
		t.Error("\"kind of\" should contribute no valence")
	}
	if a.Compound("very kind staff") <= 0 {
		t.Error("kind on its own is positive")
	}
}

func TestCompoundBounded(t *testing.T) {
	a := New(nil)
	texts := []string{
		"love love love love love love love love amazing awesome perfect!!!!!!!",
		"worst worst worst terrible horrible awful hate hate hate!!!!",
		"good???? bad????",
	}
	for _, text := range texts {
		if got := a.Compound(text); got < -1 || got > 1 {
			t.Errorf("Compound(%q) = %v out of [-1, 1]", text, got)
		}
	}
}

func TestWordListCoverage(t *testing.T) {
	a := New(nil)
	tests := []struct {
		text     string
		negative bool
	}{
		{"refund was denied.", true},
		{"the screen arrived broken", true},
		{"support was helpful", false},
	}
	for _, tt := range tests {
		got := a.Compound(tt.text)
		if got == 0 || (got < 0) != tt.negative {
			t.Errorf("Compound(%q) = %.4f, want negative=%v", tt.text, got, tt.negative)
		}
	}
}

func TestLexiconOverrides(t *testing.T) {
	lex := lexicon.New()
	lex.SetValence("stellar", 3)
	lex.SetValence("good", -1.9)
	a := New(lex)

	p, err := a.Estimate("stellar shipping")
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if p.Score <= 0 || p.Subjectivity != 0 {
		t.Errorf("Estimate = %+v, want positive score and zero subjectivity", p)
	}
	if got := a.Compound("good"); got >= 0 {
		t.Errorf("override should flip good, got %v", got)
	}
	if got := New(nil).Compound("stellar shipping"); got != 0 {
		t.Errorf("stellar is not a VADER word, got %v", got)
	}
}

func TestDefaultLexiconOverrides(t *testing.T) {
	a := New(lexicon.Default())
	if got := a.Compound("its fine does the job."); got != 0 {
		t.Errorf("fine should read as neutral, got %v", got)
	}
	if got := a.Compound("the app crashes constantly"); got >= 0 {
		t.Errorf("crashes should be negative, got %v", got)
	}
	if v, ok := a.Valence("crashes"); !ok || v >= 0 {
		t.Errorf("Valence(crashes) = %v, %v", v, ok)
	}
	if v, ok := a.Valence("love"); !ok || v != 3.2 {
		t.Errorf("VADER valence for love lost: %v, %v", v, ok)
	}
}
