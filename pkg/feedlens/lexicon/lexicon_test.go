package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLexiconNew(t *testing.T) {
	lex := New()
	if lex == nil {
		t.Fatal("New() returned nil")
	}
	if stats := lex.Stats(); stats != (Stats{}) {
		t.Errorf("New lexicon should be empty, got %+v", stats)
	}
}

func TestDefaultLexicon(t *testing.T) {
	lex := Default()
	stats := lex.Stats()
	if stats.Valence == 0 || stats.Adjectives == 0 || stats.Boosters == 0 || stats.Negations == 0 {
		t.Fatalf("default lexicon has empty tables: %+v", stats)
	}

	if v, ok := lex.Valence("reliable"); !ok || v <= 0 {
		t.Errorf("Valence(reliable) = %v, %v; want positive", v, ok)
	}
	if v, ok := lex.Valence("crashes"); !ok || v >= 0 {
		t.Errorf("Valence(crashes) = %v, %v; want negative", v, ok)
	}
	if v, ok := lex.Valence("fine"); !ok || v != 0 {
		t.Errorf("Valence(fine) = %v, %v; want a zero override", v, ok)
	}
	if a, ok := lex.Adjective("terrible"); !ok || a.Polarity >= 0 {
		t.Errorf("Adjective(terrible) = %+v, %v; want negative polarity", a, ok)
	}
	if !lex.IsNegation("not") || !lex.IsNegation("dont") || !lex.IsNegation("no") {
		t.Error("expected not/dont/no to be negations")
	}

	// Neutral filler stays out of every table.
	for _, w := range []string{"job", "does", "product"} {
		if _, ok := lex.Valence(w); ok {
			t.Errorf("%q should have no valence", w)
		}
		if _, ok := lex.Adjective(w); ok {
			t.Errorf("%q should not be an adjective", w)
		}
	}
}

func TestDefaultReturnsCopy(t *testing.T) {
	a := Default()
	a.SetValence("reliable", -1)
	a.Remove("crashes")

	b := Default()
	if v, _ := b.Valence("reliable"); v <= 0 {
		t.Errorf("mutating one copy leaked into another: reliable = %v", v)
	}
	if _, ok := b.Valence("crashes"); !ok {
		t.Error("Remove on one copy leaked into another")
	}
}

func TestEachValenceAndBooster(t *testing.T) {
	lex := New()
	lex.SetValence("Stellar", 3)
	lex.SetBooster("mega", 0.4)

	valences := map[string]float64{}
	lex.EachValence(func(w string, v float64) { valences[w] = v })
	if len(valences) != 1 || valences["stellar"] != 3 {
		t.Errorf("EachValence visited %v", valences)
	}
	boosters := map[string]float64{}
	lex.EachBooster(func(w string, v float64) { boosters[w] = v })
	if len(boosters) != 1 || boosters["mega"] != 0.4 {
		t.Errorf("EachBooster visited %v", boosters)
	}
}

func TestIsNegationContraction(t *testing.T) {
	lex := New()
	if !lex.IsNegation("shouldn't") {
		t.Error("n't contractions should be negations")
	}
	if lex.IsNegation("note") {
		t.Error("note is not a negation")
	}
}

func TestLoadFromYAMLAndMerge(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "lexicon.yaml")
	content := `valence:
  Stellar: 3.0
  love: -1.0
adjectives:
  stellar: {polarity: 0.9, subjectivity: 0.8}
intensifiers:
  mega: 2.0
negations: [nah]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	custom, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if v, ok := custom.Valence("stellar"); !ok || v != 3.0 {
		t.Errorf("keys should be lowercased: stellar = %v, %v", v, ok)
	}

	lex := Default()
	lex.Merge(custom)

	if v, _ := lex.Valence("love"); v != -1.0 {
		t.Errorf("override not applied: love = %v", v)
	}
	if a, ok := lex.Adjective("stellar"); !ok || a.Polarity != 0.9 {
		t.Errorf("Adjective(stellar) = %+v, %v", a, ok)
	}
	if v, ok := lex.Intensifier("mega"); !ok || v != 2.0 {
		t.Errorf("Intensifier(mega) = %v, %v", v, ok)
	}
	if !lex.IsNegation("nah") {
		t.Error("nah should be a negation after merge")
	}
	if !lex.IsNegation("never") {
		t.Error("merge should keep existing negations")
	}
}

func TestParseRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"valence", "valence:\n  great: 9\n"},
		{"polarity", "adjectives:\n  great: {polarity: 2, subjectivity: 0.5}\n"},
		{"subjectivity", "adjectives:\n  great: {polarity: 0.5, subjectivity: -0.1}\n"},
		{"intensifier", "intensifiers:\n  very: 0\n"},
		{"syntax", "valence: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("Parse(%q) should fail", tt.yaml)
			}
		})
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNegationsSorted(t *testing.T) {
	lex := New()
	lex.AddNegation("never")
	lex.AddNegation(" NOT ")
	got := lex.Negations()
	if len(got) != 2 || got[0] != "never" || got[1] != "not" {
		t.Errorf("Negations() = %v", got)
	}
}
