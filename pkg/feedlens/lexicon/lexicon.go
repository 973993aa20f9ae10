package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Lexicon stores the word tables used by the sentiment estimators:
// - Valence: VADER word valence on a [-4, 4] scale, layered over the VADER
//   word list (crashes → -1.7)
// - Adjectives: polarity and subjectivity of opinion words (terrible → -1.0, 1.0)
// - Boosters: additive shift applied to the next valenced word (very → +0.293)
// - Intensifiers: multiplier applied to the next adjective (very → 1.3)
// - Negations: words that flip what follows (not, dont, never)
//
// A Lexicon is not safe for concurrent mutation. Estimators only read it, so
// build it fully before handing it out.
type Lexicon struct {
	valence      map[string]float64
	adjectives   map[string]Adjective
	boosters     map[string]float64
	intensifiers map[string]float64
	negations    map[string]struct{}
}

// Adjective is the polarity/subjectivity pair of an opinion word.
type Adjective struct {
	Polarity     float64 `yaml:"polarity"`
	Subjectivity float64 `yaml:"subjectivity"`
}

// Stats summarises table sizes.
type Stats struct {
	Valence      int
	Adjectives   int
	Boosters     int
	Intensifiers int
	Negations    int
}

type file struct {
	Valence      map[string]float64   `yaml:"valence"`
	Adjectives   map[string]Adjective `yaml:"adjectives"`
	Boosters     map[string]float64   `yaml:"boosters"`
	Intensifiers map[string]float64   `yaml:"intensifiers"`
	Negations    []string             `yaml:"negations"`
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		valence:      make(map[string]float64),
		adjectives:   make(map[string]Adjective),
		boosters:     make(map[string]float64),
		intensifiers: make(map[string]float64),
		negations:    make(map[string]struct{}),
	}
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns a fresh copy of the built-in lexicon.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Parse(defaultYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("lexicon: embedded default is invalid: %v", defaultErr))
	}
	return defaultLex.Clone()
}

// LoadFromYAML loads a lexicon file.
//
// Expected format:
//
//	valence:
//	  love: 3.2
//	adjectives:
//	  terrible: {polarity: -1.0, subjectivity: 1.0}
//	boosters:
//	  very: 0.293
//	intensifiers:
//	  very: 1.3
//	negations: [not, never]
//
// Every section is optional. Keys are lowercased.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return lex, nil
}

// Parse builds a lexicon from YAML bytes.
func Parse(data []byte) (*Lexicon, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	lex := New()
	for w, v := range f.Valence {
		if v < -4 || v > 4 {
			return nil, fmt.Errorf("valence for %q out of range [-4, 4]: %v", w, v)
		}
		lex.SetValence(w, v)
	}
	for w, a := range f.Adjectives {
		if a.Polarity < -1 || a.Polarity > 1 || a.Subjectivity < 0 || a.Subjectivity > 1 {
			return nil, fmt.Errorf("adjective %q out of range: %+v", w, a)
		}
		lex.SetAdjective(w, a)
	}
	for w, v := range f.Boosters {
		lex.SetBooster(w, v)
	}
	for w, v := range f.Intensifiers {
		if v <= 0 {
			return nil, fmt.Errorf("intensifier %q must be positive: %v", w, v)
		}
		lex.SetIntensifier(w, v)
	}
	for _, w := range f.Negations {
		lex.AddNegation(w)
	}
	return lex, nil
}

// Merge copies every entry of other into l, overriding existing ones.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	for w, v := range other.valence {
		l.valence[w] = v
	}
	for w, a := range other.adjectives {
		l.adjectives[w] = a
	}
	for w, v := range other.boosters {
		l.boosters[w] = v
	}
	for w, v := range other.intensifiers {
		l.intensifiers[w] = v
	}
	for w := range other.negations {
		l.negations[w] = struct{}{}
	}
}

// Clone returns a deep copy.
func (l *Lexicon) Clone() *Lexicon {
	c := New()
	c.Merge(l)
	return c
}

func key(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// SetValence sets the rule-based valence of a word.
func (l *Lexicon) SetValence(word string, v float64) {
	if k := key(word); k != "" {
		l.valence[k] = v
	}
}

// SetAdjective sets the polarity/subjectivity of a word.
func (l *Lexicon) SetAdjective(word string, a Adjective) {
	if k := key(word); k != "" {
		l.adjectives[k] = a
	}
}

// SetBooster sets the additive booster shift of a word.
func (l *Lexicon) SetBooster(word string, v float64) {
	if k := key(word); k != "" {
		l.boosters[k] = v
	}
}

// SetIntensifier sets the multiplier a word applies to the next adjective.
func (l *Lexicon) SetIntensifier(word string, v float64) {
	if k := key(word); k != "" {
		l.intensifiers[k] = v
	}
}

// AddNegation marks a word as a negation.
func (l *Lexicon) AddNegation(word string) {
	if k := key(word); k != "" {
		l.negations[k] = struct{}{}
	}
}

// Remove deletes a word from every table.
func (l *Lexicon) Remove(word string) {
	k := key(word)
	delete(l.valence, k)
	delete(l.adjectives, k)
	delete(l.boosters, k)
	delete(l.intensifiers, k)
	delete(l.negations, k)
}

// Valence returns the rule-based valence of a word.
func (l *Lexicon) Valence(word string) (float64, bool) {
	v, ok := l.valence[word]
	return v, ok
}

// EachValence calls fn for every valence entry.
func (l *Lexicon) EachValence(fn func(word string, v float64)) {
	for w, v := range l.valence {
		fn(w, v)
	}
}

// EachBooster calls fn for every booster entry.
func (l *Lexicon) EachBooster(fn func(word string, v float64)) {
	for w, v := range l.boosters {
		fn(w, v)
	}
}

// Adjective returns the polarity/subjectivity of a word.
func (l *Lexicon) Adjective(word string) (Adjective, bool) {
	a, ok := l.adjectives[word]
	return a, ok
}

// Booster returns the booster shift of a word.
func (l *Lexicon) Booster(word string) (float64, bool) {
	v, ok := l.boosters[word]
	return v, ok
}

// Intensifier returns the multiplier of a word.
func (l *Lexicon) Intensifier(word string) (float64, bool) {
	v, ok := l.intensifiers[word]
	return v, ok
}

// IsNegation reports whether a word negates what follows. Contractions
// ending in "n't" count even when not listed.
func (l *Lexicon) IsNegation(word string) bool {
	if _, ok := l.negations[word]; ok {
		return true
	}
	return strings.HasSuffix(word, "n't")
}

// Negations returns the negation words in sorted order.
func (l *Lexicon) Negations() []string {
	out := make([]string, 0, len(l.negations))
	for w := range l.negations {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Stats returns table sizes.
func (l *Lexicon) Stats() Stats {
	return Stats{
		Valence:      len(l.valence),
		Adjectives:   len(l.adjectives),
		Boosters:     len(l.boosters),
		Intensifiers: len(l.intensifiers),
		Negations:    len(l.negations),
	}
}
