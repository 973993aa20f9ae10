// Package summary aggregates document-topic assignments into per-topic and
// corpus-wide coverage statistics.
package summary

import (
	"sort"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/assign"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

// summaryKeywords is how many keywords each topic summary lists.
const summaryKeywords = 5

// TopicSummary describes one topic's coverage.
type TopicSummary struct {
	TopicID          int      `json:"topic_id"`
	TopicName        string   `json:"topic_name"`
	Keywords         []string `json:"keywords"`
	DocumentCount    int      `json:"document_count"`
	AverageRelevance float64  `json:"average_relevance"`
	PercentageOfDocs float64  `json:"percentage_of_docs"`
}

// Summary is the topic analysis of one run.
type Summary struct {
	TotalTopics              int            `json:"total_topics"`
	TotalDocumentsAnalyzed   int            `json:"total_documents_analyzed"`
	AverageTopicsPerDocument float64        `json:"average_topics_per_document"`
	Topics                   []TopicSummary `json:"topics_summary"`
}

// Summarize aggregates assignments per topic.
//
// DocumentCount counts distinct documents per topic; PercentageOfDocs is
// relative to the documents with at least one assignment, not to the whole
// corpus. AverageRelevance is rounded to 3 decimals, PercentageOfDocs to 1
// and AverageTopicsPerDocument to 2. Topics are ordered by DocumentCount,
// keeping input order on ties. No topics yields an empty summary.
func Summarize(ts []topics.Topic, assignments []assign.Assignment) Summary {
	if len(ts) == 0 {
		return Summary{Topics: []TopicSummary{}}
	}

	docs := make(map[int]struct{})
	topicDocs := make(map[int]map[int]struct{})
	relevances := make(map[int][]float64)
	for _, a := range assignments {
		docs[a.DocumentID] = struct{}{}
		if topicDocs[a.TopicID] == nil {
			topicDocs[a.TopicID] = make(map[int]struct{})
		}
		topicDocs[a.TopicID][a.DocumentID] = struct{}{}
		relevances[a.TopicID] = append(relevances[a.TopicID], a.Relevance)
	}
	analyzed := len(docs)

	out := make([]TopicSummary, 0, len(ts))
	for _, t := range ts {
		terms := t.Terms()
		count := len(topicDocs[t.ID])
		s := TopicSummary{
			TopicID:          t.ID,
			TopicName:        t.Name,
			Keywords:         terms[:min(summaryKeywords, len(terms))],
			DocumentCount:    count,
			AverageRelevance: numeric.Round(numeric.Mean(relevances[t.ID]), 3),
		}
		if analyzed > 0 {
			s.PercentageOfDocs = numeric.Round(float64(count)/float64(analyzed)*100, 1)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DocumentCount > out[j].DocumentCount })

	sum := Summary{
		TotalTopics:            len(ts),
		TotalDocumentsAnalyzed: analyzed,
		Topics:                 out,
	}
	if analyzed > 0 {
		sum.AverageTopicsPerDocument = numeric.Round(float64(len(assignments))/float64(analyzed), 2)
	}
	return sum
}
