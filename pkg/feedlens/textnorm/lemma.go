package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// irregular maps inflected nouns to their base form. Entries that map to
// themselves protect words whose trailing "s" is not a plural.
var irregular = map[string]string{
	"children":    "child",
	"men":         "man",
	"women":       "woman",
	"feet":        "foot",
	"teeth":       "tooth",
	"mice":        "mouse",
	"geese":       "goose",
	"lives":       "life",
	"wives":       "wife",
	"knives":      "knife",
	"leaves":      "leaf",
	"halves":      "half",
	"shelves":     "shelf",
	"wolves":      "wolf",
	"thieves":     "thief",
	"aches":       "ache",
	"headaches":   "headache",
	"caches":      "cache",
	"niches":      "niche",
	"mustaches":   "mustache",
	"avalanches":  "avalanche",
	"criteria":    "criterion",
	"phenomena":   "phenomenon",
	"analyses":    "analysis",
	"crises":      "crisis",
	"diagnoses":   "diagnosis",
	"movies":      "movie",
	"cookies":     "cookie",
	"calories":    "calorie",
	"selfies":     "selfie",
	"zombies":     "zombie",
	"freebies":    "freebie",
	"goodies":     "goodie",
	"smoothies":   "smoothie",
	"brownies":    "brownie",
	"rookies":     "rookie",
	"hoodies":     "hoodie",
	"buses":       "bus",
	"statuses":    "status",
	"viruses":     "virus",
	"bonuses":     "bonus",
	"campuses":    "campus",
	"news":        "news",
	"series":      "series",
	"species":     "species",
	"always":      "always",
	"perhaps":     "perhaps",
	"whereas":     "whereas",
	"towards":     "towards",
	"afterwards":  "afterwards",
	"sometimes":   "sometimes",
	"lens":        "lens",
	"yes":         "yes",
	"thanks":      "thanks",
	"physics":     "physics",
	"economics":   "economics",
	"electronics": "electronics",
	"logistics":   "logistics",
	"analytics":   "analytics",
	"statistics":  "statistics",
	"politics":    "politics",
	"graphics":    "graphics",
	"diagnostics": "diagnostics",
}

// Lemmatize reduces a lowercase token to its singular noun form.
// It is idempotent: Lemmatize(Lemmatize(w)) == Lemmatize(w).
func Lemmatize(word string) string {
	if base, ok := irregular[word]; ok {
		return base
	}
	lemma := stripPlural(word)
	if base, ok := irregular[lemma]; ok {
		return base
	}
	return lemma
}

func stripPlural(word string) string {
	n := utf8.RuneCountInString(word)
	if n <= 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "ies") && n > 4:
		return withSuffix(word, 3, "y")
	case strings.HasSuffix(word, "sses"):
		return withSuffix(word, 2, "")
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"), strings.HasSuffix(word, "zzes"):
		return withSuffix(word, 2, "")
	case strings.HasSuffix(word, "s"):
		return withSuffix(word, 1, "")
	}
	return word
}

// withSuffix trims cut bytes and appends repl, but only when the remaining
// stem ends in a letter; "12s" or "a-s" stay as they are.
func withSuffix(word string, cut int, repl string) string {
	stem := word[:len(word)-cut]
	last, _ := utf8.DecodeLastRuneInString(stem)
	if !unicode.IsLetter(last) {
		return word
	}
	return stem + repl
}
