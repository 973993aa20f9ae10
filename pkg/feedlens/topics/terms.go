package topics

import (
	"sort"
	"strings"

	"github.com/cognicore/feedlens/pkg/feedlens/textnorm"
)

// DefaultTermLimit caps TermFrequencies when n is not positive.
const DefaultTermLimit = 100

// TermCount is how often a word occurs across a corpus.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TermFrequencies counts single words over the topic-normalized texts and
// returns the n most frequent, ties broken alphabetically. Collocations are
// not counted.
func (e *Extractor) TermFrequencies(texts []string, n int) []TermCount {
	if n <= 0 {
		n = DefaultTermLimit
	}
	counts := make(map[string]int)
	for _, t := range texts {
		for _, w := range strings.Fields(e.norm.Normalize(t, textnorm.ModeTopic)) {
			if len(w) < 2 || e.vecStops.IsStop(w) {
				continue
			}
			counts[w]++
		}
	}
	if len(counts) == 0 {
		e.log.Warn("No valid text for term frequencies")
		return []TermCount{}
	}

	out := make([]TermCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, TermCount{Term: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
