// Package report assembles the outcome of an analysis run: run statistics,
// sentiment distribution, business metrics and topic summary, with plain and
// terminal renderings.
package report

import (
	"time"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/assign"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
	"github.com/cognicore/feedlens/pkg/feedlens/summary"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

// Stats counts what a run did.
type Stats struct {
	StartedAt         time.Time `json:"start_time"`
	FinishedAt        time.Time `json:"end_time"`
	DurationSeconds   float64   `json:"duration_seconds"`
	FeedbackProcessed int       `json:"feedback_processed"`
	SentimentAnalyzed int       `json:"sentiment_analyzed"`
	TopicsExtracted   int       `json:"topics_extracted"`
	Errors            int       `json:"errors"`
	SuccessRate       float64   `json:"success_rate"`
}

// Finish stamps the end time and derives duration and success rate:
// (sentiment analyzed + topic assignments) / (2 * processed) * 100, rounded
// to two decimals, or 0 when nothing was processed.
func (s *Stats) Finish(at time.Time) {
	s.FinishedAt = at
	s.DurationSeconds = at.Sub(s.StartedAt).Seconds()
	if s.FeedbackProcessed == 0 {
		s.SuccessRate = 0
		return
	}
	rate := float64(s.SentimentAnalyzed+s.TopicsExtracted) / float64(2*s.FeedbackProcessed) * 100
	s.SuccessRate = numeric.Round(rate, 2)
}

// Document is the per-item outcome of a run.
type Document struct {
	FeedbackID string              `json:"feedback_id"`
	Sentiment  sentiment.Result    `json:"sentiment"`
	Topics     []assign.Assignment `json:"topics"`
}

// Recent summarises stored data of the last days, when a store is attached.
type Recent struct {
	Days          int               `json:"days"`
	TotalFeedback int               `json:"total_feedback"`
	AvgSentiment  float64           `json:"avg_sentiment"`
	TopTopics     []store.TopicStat `json:"top_topics"`
}

// Report is the outcome of one analysis run.
type Report struct {
	RunID     string                 `json:"run_id"`
	Success   bool                   `json:"success"`
	Stats     Stats                  `json:"statistics"`
	Sentiment sentiment.Distribution `json:"sentiment_distribution"`
	Metrics   Metrics                `json:"business_metrics"`
	Topics    []topics.Topic         `json:"topics"`
	Summary   summary.Summary        `json:"topic_summary"`
	Terms     []topics.TermCount     `json:"term_frequencies,omitempty"`
	Documents []Document             `json:"documents,omitempty"`
	Health    *store.Health          `json:"database_health,omitempty"`
	Recent    *Recent                `json:"recent_metrics,omitempty"`
}

// TopTopics returns at most n topic summaries in report order.
func (r *Report) TopTopics(n int) []summary.TopicSummary {
	ts := r.Summary.Topics
	if len(ts) > n {
		ts = ts[:n]
	}
	return ts
}
