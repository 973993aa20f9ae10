// Package assign scores how relevant each discovered topic is to each
// feedback document and keeps the strongest matches per document.
package assign

import (
	"sort"
	"strings"

	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/textnorm"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

// Relevance constants. They are empirical and not derived from labelled data.
const (
	// MinRelevance is the floor a match must exceed to be kept.
	MinRelevance = 0.1
	// MaxPerDocument caps the assignments kept for one document.
	MaxPerDocument = 3
	// lengthBonusWords is the distinct-word count that earns one full point
	// of length bonus before the cap applies.
	lengthBonusWords = 50.0
	maxLengthBonus   = 0.2
)

// Assignment links one document to one topic.
type Assignment struct {
	DocumentID    int      `json:"document_id"`
	TopicID       int      `json:"topic_id"`
	TopicName     string   `json:"topic_name"`
	Relevance     float64  `json:"relevance_score"`
	KeywordsFound []string `json:"keywords_found"`
}

// Assigner matches documents against topic keywords.
type Assigner struct {
	norm *textnorm.Normalizer
	log  *logging.Logger
}

// New creates an assigner. A nil normalizer uses the default stoplist.
func New(norm *textnorm.Normalizer, log *logging.Logger) *Assigner {
	if norm == nil {
		norm = textnorm.New(nil)
	}
	return &Assigner{norm: norm, log: log}
}

// Assign scores every non-empty document against every topic. DocumentID is
// the document's index in texts. Per document, matches above MinRelevance
// are ordered by relevance, ties keeping the order of topics, and at most
// MaxPerDocument are kept. Documents that normalize to nothing are skipped.
func (a *Assigner) Assign(texts []string, ts []topics.Topic) []Assignment {
	if len(texts) == 0 || len(ts) == 0 {
		return []Assignment{}
	}

	out := []Assignment{}
	for doc, text := range texts {
		clean := a.norm.Normalize(text, textnorm.ModeTopic)
		if clean == "" {
			continue
		}
		words := wordSet(clean)

		var matches []Assignment
		for _, t := range ts {
			rel, found := Relevance(words, t.Terms())
			if rel <= MinRelevance {
				continue
			}
			matches = append(matches, Assignment{
				DocumentID:    doc,
				TopicID:       t.ID,
				TopicName:     t.Name,
				Relevance:     rel,
				KeywordsFound: found,
			})
		}

		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Relevance > matches[j].Relevance
		})
		if len(matches) > MaxPerDocument {
			matches = matches[:MaxPerDocument]
		}
		out = append(out, matches...)
	}

	a.log.Debug("Assigned %d topic matches across %d documents", len(out), len(texts))
	return out
}

// Relevance scores a document's word set against topic keywords: the share
// of keywords present plus a length bonus of min(len(words)/50, 0.2), capped
// at 1. A keyword is present only if it is one of the words, so multi-word
// keywords never match. It also returns the matched keywords in order.
func Relevance(words map[string]struct{}, keywords []string) (float64, []string) {
	if len(words) == 0 || len(keywords) == 0 {
		return 0, nil
	}

	found := []string{}
	for _, kw := range keywords {
		if _, ok := words[strings.ToLower(kw)]; ok {
			found = append(found, kw)
		}
	}
	share := float64(len(found)) / float64(len(keywords))
	bonus := min(float64(len(words))/lengthBonusWords, maxLengthBonus)
	return min(share+bonus, 1.0), found
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
